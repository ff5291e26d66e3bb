package engine

// Message keys understood by the Localizer.
const (
	MsgNoKeys        = "no-keys"
	MsgNoRewards     = "no-rewards"
	MsgNoItem        = "no-item"
	MsgInventoryFull = "inventory-full"
	MsgBusy          = "crate-busy"
	MsgNoPermission  = "no-permission"

	MsgWonItem       = "won-item"
	MsgCrateLore     = "crate-lore"
	MsgWonAlert      = "won-alert"
	MsgOpenCrateTip  = "open-crate-tip"
	MsgReceivedKeys  = "received-keys"
	MsgCrateSpawned  = "crate-spawned"
	MsgCountdownBase = "title-countdown-"
)

// Placeholder names.
const (
	PhItemName  = "{itemName}"
	PhCrate     = "{crate}"
	PhCrateName = "{crateName}"
	PhCrateType = "{crateType}"
	PhUserName  = "{userName}"
	PhAmount    = "{amount}"
	PhKeyType   = "{keyType}"
)

// Sounds and title timings of the reveal.
const (
	SoundReveal    = "firework.twinkle"
	SoundCountdown = "note.harp"
	SoundVolume    = 100
	SoundPitch     = 500

	TitleFadeIn  = 5
	TitleStay    = 20
	TitleFadeOut = 5
)
