package configresolver

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bg/internal/model"
)

func TestRandomizeBSSIDAssignsLocallyAdministeredUnicast(t *testing.T) {
	cfg := model.SoftApConfiguration{}
	out, err := RandomizeBSSID(cfg)
	require.NoError(t, err)
	assert.True(t, out.Randomized)
	assert.Equal(t, byte(0), out.BSSID[0]&0x01, "must be unicast")
	assert.Equal(t, byte(0x02), out.BSSID[0]&0x02, "must be locally administered")
}

func TestRandomizeBSSIDSkipsWhenExplicit(t *testing.T) {
	explicit, _ := model.ParseMAC("aa:bb:cc:dd:ee:ff")
	cfg := model.SoftApConfiguration{HasBSSID: true, BSSID: explicit}
	out, err := RandomizeBSSID(cfg)
	require.NoError(t, err)
	assert.False(t, out.Randomized)
	assert.Equal(t, explicit, out.BSSID)
}

func TestRandomizeBSSIDIdempotentOnceRandomized(t *testing.T) {
	cfg := model.SoftApConfiguration{}
	first, _ := RandomizeBSSID(cfg)
	second, err := RandomizeBSSID(first)
	require.NoError(t, err)
	assert.Equal(t, first.BSSID, second.BSSID)
}

func TestSplitDualBand(t *testing.T) {
	parent := model.SoftApConfiguration{SSID: "foo", Band: model.BandAny}
	a, b := SplitDualBand(parent)
	assert.Equal(t, model.Band2GHz, a.Band)
	assert.Equal(t, model.Band5GHz, b.Band)
	assert.Equal(t, "foo", a.SSID)
	assert.Equal(t, "foo", b.SSID)
}

func TestOWEPair(t *testing.T) {
	parent := model.SoftApConfiguration{SSID: "foo"}
	owe, open := OWEPair(parent)

	assert.Equal(t, model.SecurityOWE, owe.Security)
	assert.True(t, owe.HiddenSSID)
	assert.Equal(t, fmt.Sprintf("OWE_%d", StableHash32("foo")), owe.SSID)

	assert.Equal(t, model.SecurityOpen, open.Security)
	assert.False(t, open.HiddenSSID)
}

func TestResolveChannelACSOffload(t *testing.T) {
	cap := model.SoftApCapability{Bits: model.CapACSOffload}
	ch, err := ResolveChannel(model.SoftApConfiguration{}, cap, model.Band5GHz, true)
	require.NoError(t, err)
	assert.Equal(t, 0, ch)
}

func TestResolveChannelPicksFromCapability(t *testing.T) {
	cap := model.SoftApCapability{
		ChannelsByBand: map[model.Band][]int{model.Band2GHz: {6, 1, 11}},
	}
	ch, err := ResolveChannel(model.SoftApConfiguration{}, cap, model.Band2GHz, false)
	require.NoError(t, err)
	assert.Equal(t, 1, ch)
}

func TestResolveChannelNoCandidatesFails(t *testing.T) {
	cap := model.SoftApCapability{}
	_, err := ResolveChannel(model.SoftApConfiguration{}, cap, model.Band5GHz, false)
	require.Error(t, err)
	assert.True(t, IsNoChannel(err))
}

func TestStableHash32Deterministic(t *testing.T) {
	assert.Equal(t, StableHash32("foo"), StableHash32("foo"))
	assert.NotEqual(t, StableHash32("foo"), StableHash32("bar"))
}
