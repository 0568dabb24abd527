package normalization

import (
	"encoding/json"
	"fmt"
	"log"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/observability"
)

// identity holds the fields every canonical event requires.
type identity struct {
	matchID string
	round   int
	steamID string
}

// resolveIdentity fails with ErrMalformedRecord when match id, round or
// actor id cannot be resolved under either convention.
func resolveIdentity(r RawRecord) (identity, error) {
	matchID := fMatchID.str(r)
	if matchID == "" {
		return identity{}, fmt.Errorf("%w: missing match id", ErrMalformedRecord)
	}

	rawRound, ok := fRound.resolve(r)
	if !ok {
		return identity{}, fmt.Errorf("%w: missing round", ErrMalformedRecord)
	}
	round, ok := toInt64(rawRound)
	if !ok || round < 0 {
		return identity{}, fmt.Errorf("%w: invalid round %v", ErrMalformedRecord, rawRound)
	}

	steamID := fSteamID.str(r)
	if steamID == "" {
		return identity{}, fmt.Errorf("%w: missing actor id", ErrMalformedRecord)
	}

	return identity{matchID: matchID, round: int(round), steamID: steamID}, nil
}

// NormalizeKill maps a raw record of either convention to a KillEvent.
func NormalizeKill(r RawRecord) (*domain.KillEvent, error) {
	id, err := resolveIdentity(r)
	if err != nil {
		return nil, err
	}

	return &domain.KillEvent{
		MatchID: id.matchID,
		Round:   id.round,
		Map:     fMap.str(r),
		Team:    fTeam.str(r),
		SteamID: id.steamID,
		Name:    fName.str(r),
		Mode:    fMode.str(r),
		Weapon: domain.WeaponState{
			Name:     fWeaponName.str(r),
			Type:     fWeaponType.str(r),
			Ammo:     nonNegative(fWeaponAmmo.integer(r)),
			Reserve:  nonNegative(fWeaponReserve.integer(r)),
			Skin:     fWeaponSkin.str(r),
			Headshot: fWeaponHeadshot.boolean(r),
		},
		Timestamp: fKillTimestamp.timestamp(r),
	}, nil
}

// NormalizePlayer maps a raw record of either convention to a PlayerEvent.
// A record without any health value reports full health.
func NormalizePlayer(r RawRecord) (*domain.PlayerEvent, error) {
	id, err := resolveIdentity(r)
	if err != nil {
		return nil, err
	}

	health := 100
	if _, ok := fHealth.resolve(r); ok {
		health = clamp(fHealth.integer(r), 0, 100)
	}

	return &domain.PlayerEvent{
		MatchID:     id.matchID,
		Round:       id.round,
		Map:         fMap.str(r),
		Team:        fTeam.str(r),
		SteamID:     id.steamID,
		Name:        fName.str(r),
		Mode:        fMode.str(r),
		Health:      health,
		Armor:       clamp(fArmor.integer(r), 0, 100),
		Helmet:      fHelmet.boolean(r),
		Money:       nonNegative(fMoney.integer(r)),
		EquipValue:  nonNegative(fEquipValue.integer(r)),
		RoundKills:  nonNegative(fRoundKills.integer(r)),
		RoundKillHS: nonNegative(fRoundKillHS.integer(r)),
		Kills:       nonNegative(fKills.integer(r)),
		Assists:     nonNegative(fAssists.integer(r)),
		Deaths:      nonNegative(fDeaths.integer(r)),
		MVPs:        nonNegative(fMVPs.integer(r)),
		Score:       fScore.integer(r),
		Timestamp:   fPlayerTimestamp.timestamp(r),
		WinTeam:     fWinTeam.str(r),
	}, nil
}

// Normalizer converts whole batches, skipping malformed records.
type Normalizer struct {
	logger *log.Logger
}

// Options configures a Normalizer.
type Options struct {
	Logger *log.Logger
}

// New creates a Normalizer.
func New(opts Options) *Normalizer {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Normalizer{logger: logger}
}

// Kills normalizes a batch of raw kill records and returns them in canonical order.
// Malformed records are logged and skipped.
func (n *Normalizer) Kills(source domain.Source, records []json.RawMessage) []*domain.KillEvent {
	out := make([]*domain.KillEvent, 0, len(records))
	for i, data := range records {
		raw, err := DecodeRecord(source, data)
		if err == nil {
			var e *domain.KillEvent
			if e, err = NormalizeKill(raw); err == nil {
				out = append(out, e)
				continue
			}
		}
		n.logger.Printf("skip kill record %d from %s: %v", i, source, err)
		observability.RecordMalformed(source.String(), "kill")
	}
	SortKills(out)
	return out
}

// Players normalizes a batch of raw player records and returns them in canonical order.
// Malformed records are logged and skipped.
func (n *Normalizer) Players(source domain.Source, records []json.RawMessage) []*domain.PlayerEvent {
	out := make([]*domain.PlayerEvent, 0, len(records))
	for i, data := range records {
		raw, err := DecodeRecord(source, data)
		if err == nil {
			var e *domain.PlayerEvent
			if e, err = NormalizePlayer(raw); err == nil {
				out = append(out, e)
				continue
			}
		}
		n.logger.Printf("skip player record %d from %s: %v", i, source, err)
		observability.RecordMalformed(source.String(), "player")
	}
	SortPlayers(out)
	return out
}
