package model

import "time"

// ServerStatus is the lifecycle state of a game server.
type ServerStatus string

const (
	ServerOffline     ServerStatus = "OFFLINE"
	ServerMaintenance ServerStatus = "MAINTENANCE"
	ServerOnline      ServerStatus = "ONLINE"
)

// Server is a deployable host:port pair that owns zero or more Worlds.
type Server struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Hostname  string       `db:"hostname" json:"hostname"`
	Port      int          `db:"port" json:"port"`
	Status    ServerStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt"`
}
