package models

// Settings holds the raid and flood thresholds moderators can change at runtime.
type Settings struct {
	RaidUsers     int `firestore:"raid_users" json:"raid_users"`
	RaidSeconds   int `firestore:"raid_seconds" json:"raid_seconds"`
	FloodMessages int `firestore:"flood_messages" json:"flood_messages"`
	FloodSeconds  int `firestore:"flood_seconds" json:"flood_seconds"`
}

func NewSettings(raidUsers, raidSeconds, floodMessages, floodSeconds int) *Settings {
	return &Settings{
		RaidUsers:     raidUsers,
		RaidSeconds:   raidSeconds,
		FloodMessages: floodMessages,
		FloodSeconds:  floodSeconds,
	}
}

func (s *Settings) Valid() bool {
	return s.RaidUsers > 0 && s.RaidSeconds > 0 && s.FloodMessages > 0 && s.FloodSeconds > 0
}
