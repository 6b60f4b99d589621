package model

import "time"

// FsaRecord is the cached ticket to store mapping kept in the document store
type FsaRecord struct {
	ID        string    `json:"id"`
	StoreCode string    `json:"storeCode"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	PDV       string    `json:"pdv,omitempty"`
	Status    string    `json:"status,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}
