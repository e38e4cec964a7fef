package models

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// ContactRequest is a pending connection between two users; accepting one
// creates the direct chat.
type ContactRequest struct {
	ID        string        `json:"id"`
	Sender    User          `json:"sender"`
	Recipient User          `json:"recipient"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}
