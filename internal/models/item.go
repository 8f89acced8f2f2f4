package models

import "time"

type Item struct {
	ID          string    `yaml:"id" json:"id"`
	Title       string    `yaml:"title" json:"title"`
	Type        ItemType  `yaml:"type" json:"type"`
	PriceRate   float64   `yaml:"price_rate" json:"priceRate"` // per hour for labs, per day for equipment
	Capacity    string    `yaml:"capacity" json:"capacity,omitempty"`
	Description string    `yaml:"description" json:"description"`
	ImageURL    string    `yaml:"image_url" json:"imageUrl"`
	CreatedAt   time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updatedAt"`
}
