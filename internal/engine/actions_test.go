package engine

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crates/internal/crate"
	"github.com/roach88/crates/internal/ledger"
)

type stubPlayer struct {
	id     crate.PlayerID
	online bool
	msgs   []string
}

func (p *stubPlayer) ID() crate.PlayerID                      { return p.id }
func (p *stubPlayer) Name() string                            { return string(p.id) }
func (p *stubPlayer) Online() bool                            { return p.online }
func (p *stubPlayer) SendMessage(text string)                 { p.msgs = append(p.msgs, text) }
func (p *stubPlayer) SendTip(string)                          {}
func (p *stubPlayer) SendTitle(string, string, int, int, int) {}
func (p *stubPlayer) Inventory() Inventory                    { return nil }
func (p *stubPlayer) HasPermission(string) bool               { return false }
func (p *stubPlayer) Location() Location                      { return Location{} }

type stubRegistry map[crate.PlayerID]*stubPlayer

func (r stubRegistry) Online() []Player { return nil }

func (r stubRegistry) Player(id crate.PlayerID) (Player, bool) {
	p, ok := r[id]
	if !ok {
		return nil, false
	}
	return p, true
}

type keyLocalizer struct{}

func (keyLocalizer) Generate(key string, _ ...Placeholder) string { return key }

func TestActions_SkipOfflinePlayer(t *testing.T) {
	p := &stubPlayer{id: "p1", online: false}
	env := newEnv(Host{Localizer: keyLocalizer{}, Players: stubRegistry{"p1": p}}, ledger.New(), slog.Default())

	SendMessage{Player: "p1", Key: MsgWonItem}.Apply(env)
	SendMessage{Player: "ghost", Key: MsgWonItem}.Apply(env)
	assert.Empty(t, p.msgs)

	p.online = true
	SendMessage{Player: "p1", Key: MsgWonItem}.Apply(env)
	assert.Equal(t, []string{MsgWonItem}, p.msgs)
}

func TestDeductKey_ReleasesReservation(t *testing.T) {
	l := ledger.New()
	_, err := l.AddKeys("p1", crate.Magma, 2)
	require.NoError(t, err)
	env := newEnv(Host{}, l, slog.Default())
	env.reserve("p1", crate.Magma)
	env.reserve("p1", crate.Magma)

	DeductKey{Player: "p1", Crate: crate.Magma}.Apply(env)
	assert.Equal(t, 1, env.Reserved("p1", crate.Magma))
	n, err := l.KeyCount("p1", crate.Magma)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	DeductKey{Player: "p1", Crate: crate.Magma}.Apply(env)
	DeductKey{Player: "p1", Crate: crate.Magma}.Apply(env)
	assert.Equal(t, 0, env.Reserved("p1", crate.Magma))
	n, err = l.KeyCount("p1", crate.Magma)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "balance never goes negative")
}

func TestRevealSubject(t *testing.T) {
	p := &stubPlayer{id: "p1", online: true}
	env := newEnv(Host{Localizer: keyLocalizer{}, Players: stubRegistry{"p1": p}}, ledger.New(), slog.Default())

	assert.True(t, revealSubject{Player: "p1"}.Valid(env))
	assert.False(t, revealSubject{Player: "p1", Entity: "box"}.Valid(env), "no entity lookup available")
	assert.False(t, revealSubject{Player: "p2"}.Valid(env))

	p.online = false
	assert.False(t, revealSubject{Player: "p1"}.Valid(env))
}
