package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/derekmerck/tangl-go/internal/behavior"
	"github.com/derekmerck/tangl-go/internal/config"
	"github.com/derekmerck/tangl-go/internal/provision"
)

func TestBuildDemoCursor_HasExpectedRooms(t *testing.T) {
	c := buildDemoCursor()
	assert.Equal(t, "hub", c.At.Label())
	assert.Len(t, c.Graph.Nodes(), 3)
	assert.Len(t, c.Graph.Edges(), 2)
}

func TestBuildDemoCursor_RewardDependencyResolvesToVault(t *testing.T) {
	c := buildDemoCursor()
	pctx := provision.NewProvisioningContext(c.Graph, 1, 0)
	plan, unresolvedHard, waivedSoft := provision.BuildPlan(pctx, c.At, c.Provisioners)

	assert.Empty(t, unresolvedHard)
	assert.Empty(t, waivedSoft)
	assert.Len(t, plan.Steps(), 1)

	step := plan.Steps()[0]
	assert.Equal(t, "reward", step.Requirement.Label())
	assert.NotEmpty(t, step.Audit)
	assert.NotEmpty(t, step.Audit[0].ProximityDetail)
	assertProviderResolved(t, step)
}

func assertProviderResolved(t *testing.T, step *provision.PlannedOffer) {
	t.Helper()
	assert.NotNil(t, step.DepOffer)
	if step.DepOffer != nil {
		assert.NotNil(t, step.DepOffer.ProviderID)
	}
}

func TestRegistriesInBootstrapOrder_DefaultsWithNilConfig(t *testing.T) {
	globalCfg = nil
	c := buildDemoCursor()
	order := registriesInBootstrapOrder(c)
	assert.Len(t, order, 5)
	assert.Same(t, c.Global, order[0])
	assert.Same(t, c.Local, order[len(order)-1])
}

func TestRegistriesInBootstrapOrder_HonorsConfig(t *testing.T) {
	globalCfg = &config.GlobalConfig{BootstrapOrder: []string{"local", "global"}}
	defer func() { globalCfg = nil }()

	c := buildDemoCursor()
	order := registriesInBootstrapOrder(c)
	assert.Equal(t, []*behavior.Registry{c.Local, c.Global}, order)
}
