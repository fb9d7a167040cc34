package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveLoginKind(t *testing.T) {
	assert.Equal(t, LoginKindEmail, DeriveLoginKind("admin@example.com"))
	assert.Equal(t, LoginKindPhone, DeriveLoginKind("13800138000"))
	assert.Equal(t, LoginKindPhone, DeriveLoginKind(""))
}

func TestAccountStatusHelpers(t *testing.T) {
	a := Account{Status: StatusActive, Role: RoleAdmin}
	assert.True(t, a.IsActive())
	assert.True(t, a.IsAdmin())

	a.Status = StatusDisabled
	a.Role = RolePassenger
	assert.False(t, a.IsActive())
	assert.False(t, a.IsAdmin())
}

func TestProfileExtra(t *testing.T) {
	p := Profile{}
	_, ok := p.Extra("missing")
	assert.False(t, ok)

	p.ExtraProfile = map[string]interface{}{"vehicle_type": "sedan"}
	v, ok := p.Extra("vehicle_type")
	assert.True(t, ok)
	assert.Equal(t, "sedan", v)
}
