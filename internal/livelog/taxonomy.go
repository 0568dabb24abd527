// Package livelog turns push channel telemetry messages into a bounded,
// display-ready event log.
package livelog

// Display is how one event type is rendered.
type Display struct {
	Message string
	Color   string
	Icon    string
}

// Event type tags produced by the game state integration.
const (
	EventWeaponUse          = "EventPlayerWeaponUse"
	EventReloadStarted      = "PlayerWeaponReloadStarted"
	EventReloadFinished     = "PlayerWeaponReloadFinished"
	EventWeaponChanged      = "PlayerWeaponChanged"
	EventWeaponAdded        = "PlayerWeaponAdded"
	EventWeaponRemoved      = "PlayerWeaponRemoved"
	EventActiveWeaponSwitch = "PlayerActiveWeaponSwitched"
	EventHealthChanged      = "EventPlayerHealthChanged"
	EventArmourChanged      = "EventPlayerArmourChanged"
	EventAlivenessChanged   = "EventPlayerAlivenessChanged"
	EventBombPlanted        = "EventBombPlanted"
	EventBombDefused        = "EventBombDefused"
	EventBombExploded       = "EventBombExploded"
	EventPlayerPaused       = "EventPlayerPaused"
	EventPlayerPlaying      = "EventPlayerPlaying"
	EventPlayerInTextInput  = "EventPlayerInTextInput"
	EventHeartBeat          = "HeartBeat"
)

var taxonomy = map[string]Display{
	EventWeaponUse:          {Message: "Player fired weapon", Color: "text-red-400", Icon: "🔫"},
	EventReloadStarted:      {Message: "Reload started", Color: "text-yellow-400", Icon: "🔄"},
	EventReloadFinished:     {Message: "Reload finished", Color: "text-green-400", Icon: "✅"},
	EventWeaponChanged:      {Message: "Switched weapon", Color: "text-blue-400", Icon: "🔀"},
	EventWeaponAdded:        {Message: "Picked up weapon", Color: "text-cyan-400", Icon: "➕"},
	EventWeaponRemoved:      {Message: "Dropped weapon", Color: "text-orange-400", Icon: "➖"},
	EventActiveWeaponSwitch: {Message: "Switched active weapon", Color: "text-purple-400", Icon: "🎯"},
	EventHealthChanged:      {Message: "Health changed", Color: "text-pink-400", Icon: "❤️"},
	EventArmourChanged:      {Message: "Armor changed", Color: "text-gray-400", Icon: "🛡️"},
	EventAlivenessChanged:   {Message: "Player died/respawned", Color: "text-red-500", Icon: "💀"},
	EventBombPlanted:        {Message: "Bomb planted", Color: "text-orange-500", Icon: "💣"},
	EventBombDefused:        {Message: "Bomb defused", Color: "text-cyan-500", Icon: "🛡️"},
	EventBombExploded:       {Message: "Bomb exploded", Color: "text-red-600", Icon: "🔥"},
	EventPlayerPaused:       {Message: "Player paused", Color: "text-muted-foreground", Icon: "⏸️"},
	EventPlayerPlaying:      {Message: "Player resumed", Color: "text-green-500", Icon: "▶️"},
	EventPlayerInTextInput:  {Message: "Player typing", Color: "text-blue-500", Icon: "⌨️"},
	EventHeartBeat:          {Message: "Heartbeat", Color: "text-muted-foreground", Icon: "❤️‍🔥"},
}

// Describe maps an event type tag to its display. Unknown tags echo the
// raw tag with the default style.
func Describe(eventType string) Display {
	if d, ok := taxonomy[eventType]; ok {
		return d
	}
	return Display{Message: eventType, Color: "text-foreground", Icon: "📝"}
}
