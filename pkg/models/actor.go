package models

import (
	"fmt"

	"github.com/google/uuid"
)

// ActorKind identifies the type of principal acting on the system.
type ActorKind string

const (
	ActorUser   ActorKind = "user"
	ActorDriver ActorKind = "driver"
	ActorAdmin  ActorKind = "admin"
)

// Valid reports whether the kind is one of the known principal types.
func (k ActorKind) Valid() bool {
	switch k {
	case ActorUser, ActorDriver, ActorAdmin:
		return true
	}
	return false
}

// Actor is the resolved identity of the caller. Authentication happens
// upstream; handlers trust the identity headers set by the gateway.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// ParseActor builds an Actor from raw header values.
func ParseActor(kind, id string) (Actor, error) {
	k := ActorKind(kind)
	if !k.Valid() {
		return Actor{}, fmt.Errorf("unknown actor kind %q", kind)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Actor{}, fmt.Errorf("invalid actor id: %w", err)
	}
	return Actor{Kind: k, ID: parsed}, nil
}

// IsUser reports whether the actor is a rider.
func (a Actor) IsUser() bool { return a.Kind == ActorUser }

// IsDriver reports whether the actor is a driver.
func (a Actor) IsDriver() bool { return a.Kind == ActorDriver }

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool { return a.Kind == ActorAdmin }
