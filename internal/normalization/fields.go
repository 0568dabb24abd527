package normalization

// accessor reads one spelling of a field from a raw record.
type accessor func(RawRecord) (any, bool)

// key reads a top-level key.
func key(name string) accessor {
	return func(r RawRecord) (any, bool) {
		return r.field(name)
	}
}

// nested reads a key inside a sub-object.
func nested(parent, name string) accessor {
	return func(r RawRecord) (any, bool) {
		p, ok := r.field(parent)
		if !ok {
			return nil, false
		}
		obj, ok := p.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := obj[name]
		return v, ok && v != nil
	}
}

// fieldSpec lists the spellings of one canonical field in priority order:
// live key first, then historical keys.
type fieldSpec []accessor

// resolve returns the first value present under any spelling.
func (s fieldSpec) resolve(r RawRecord) (any, bool) {
	for _, get := range s {
		if v, ok := get(r); ok {
			return v, true
		}
	}
	return nil, false
}

func (s fieldSpec) str(r RawRecord) string {
	v, _ := s.resolve(r)
	return coerceString(v)
}

func (s fieldSpec) integer(r RawRecord) int {
	v, _ := s.resolve(r)
	return coerceInt(v)
}

func (s fieldSpec) boolean(r RawRecord) bool {
	v, _ := s.resolve(r)
	return coerceBool(v)
}

func (s fieldSpec) timestamp(r RawRecord) int64 {
	v, _ := s.resolve(r)
	return coerceTimestamp(v)
}

// Shared identity dimensions.
var (
	fMatchID = fieldSpec{key("match_id"), key("MatchId"), key("MatchID")}
	fRound   = fieldSpec{key("round"), key("Round")}
	fMap     = fieldSpec{key("map"), key("Map")}
	fTeam    = fieldSpec{key("team"), key("Team")}
	fSteamID = fieldSpec{key("steamid"), key("SteamID"), key("SteamId"), key("steam_id")}
	fName    = fieldSpec{key("name"), key("Name")}
	fMode    = fieldSpec{key("mode"), key("Mode")}
)

// Kill event fields.
var (
	fWeaponName     = fieldSpec{nested("active_gun", "name"), key("WeaponName"), key("weapon_name")}
	fWeaponType     = fieldSpec{nested("active_gun", "type"), key("WeaponType"), key("weapon_type")}
	fWeaponAmmo     = fieldSpec{nested("active_gun", "ammo"), key("WeaponAmmo"), key("weapon_ammo")}
	fWeaponReserve  = fieldSpec{nested("active_gun", "reserve"), key("WeaponReserve"), key("weapon_reserve")}
	fWeaponSkin     = fieldSpec{nested("active_gun", "skin"), key("WeaponSkin"), key("weapon_skin")}
	fWeaponHeadshot = fieldSpec{nested("active_gun", "headshot"), key("WeaponHeadshot"), key("weapon_headshot")}
	fKillTimestamp  = fieldSpec{key("timestamp"), key("Timestamp")}
)

// Player event fields.
var (
	fHealth          = fieldSpec{key("health"), key("Health")}
	fArmor           = fieldSpec{key("armor"), key("Armor")}
	fHelmet          = fieldSpec{key("helmet"), key("Helmet")}
	fMoney           = fieldSpec{key("money"), key("Money")}
	fEquipValue      = fieldSpec{key("equip_value"), key("EquipValue")}
	fRoundKills      = fieldSpec{key("round_kills"), key("RoundKills")}
	fRoundKillHS     = fieldSpec{key("round_killhs"), key("RoundKillHS")}
	fKills           = fieldSpec{key("kills"), key("Kills")}
	fAssists         = fieldSpec{key("assists"), key("Assists")}
	fDeaths          = fieldSpec{key("deaths"), key("Deaths")}
	fMVPs            = fieldSpec{key("mvps"), key("MVPs")}
	fScore           = fieldSpec{key("score"), key("Score")}
	fPlayerTimestamp = fieldSpec{key("timestamp"), key("EventTS"), key("event_timestamp"), key("Timestamp")}
	fWinTeam         = fieldSpec{key("win_team"), key("WinTeam")}
)
