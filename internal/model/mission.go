package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Mission is a completed scout run as stored in the mission log
type Mission struct {
	ID           int64     `json:"id" db:"id"`
	Query        string    `json:"query" db:"query"`
	Country      string    `json:"country" db:"country"`
	ProductCount int       `json:"product_count" db:"product_count"`
	TotalValue   float64   `json:"total_value" db:"total_value"`
	TopProduct   JSONMap   `json:"top_product,omitempty" db:"top_product"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	Distance     *float64  `json:"distance,omitempty" db:"distance"`
}

// MissionStats aggregates the mission log for the admin dashboard
type MissionStats struct {
	TotalMissions     int             `json:"totalMissions"`
	TotalValueScouted float64         `json:"totalValueScouted"`
	LastMissionTime   *time.Time      `json:"lastMissionTime"`
	History           []DailyMissions `json:"history"`
}

// DailyMissions is one point of the dashboard sparkline
type DailyMissions struct {
	Name     string  `json:"name" db:"name"`
	Missions int     `json:"missions" db:"missions"`
	Value    float64 `json:"value" db:"value"`
}

// JSONMap represents a JSON object field
type JSONMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return fmt.Errorf("unsupported JSONMap source %T", value)
}
