package startup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bg/internal/driveriface"
	"bg/internal/model"
)

func testCap() model.SoftApCapability {
	return model.SoftApCapability{
		MaxClients: 8,
		ChannelsByBand: map[model.Band][]int{
			model.Band2GHz: {1, 6, 11},
			model.Band5GHz: {36, 40},
		},
	}
}

func clock() func() int64 { return func() int64 { return 1000 } }

// Scenario 1 from spec.md §8: happy path single-AP.
func TestStartSingleHappyPath(t *testing.T) {
	drv := driveriface.New()
	s := New(drv, noopLogger(), clock())

	var enablingPublished bool
	cfg := model.SoftApConfiguration{SSID: "foo", Band: model.Band2GHz, CountryCode: "US"}
	res, err := s.StartSingle(cfg, testCap(), Hooks{PublishEnabling: func() { enablingPublished = true }})

	require.NoError(t, err)
	assert.True(t, enablingPublished)
	assert.Equal(t, "wlan1", res.ApIfaceName)
	assert.Len(t, res.RadioIfaces, 1)
}

// Scenario 2 from spec.md §8: 5GHZ without country code fails, no
// interface left behind.
func TestStartSingle5GHzWithoutCountryRollsBack(t *testing.T) {
	drv := driveriface.New()
	s := New(drv, noopLogger(), clock())

	cfg := model.SoftApConfiguration{SSID: "foo", Band: model.Band5GHz, CountryCode: ""}
	_, err := s.StartSingle(cfg, testCap(), Hooks{})

	require.Error(t, err)
	assert.Contains(t, drv.Torndown, "wlan1")
}

func TestStartSingle5GHzUnsupportedDriverFailsNoChannel(t *testing.T) {
	drv := driveriface.New()
	drv.Supports5GHz = false
	s := New(drv, noopLogger(), clock())

	cfg := model.SoftApConfiguration{SSID: "foo", Band: model.Band5GHz, CountryCode: "US"}
	_, err := s.StartSingle(cfg, testCap(), Hooks{})

	require.Error(t, err)
	assert.Equal(t, model.ErrNoChannel, model.KindOf(err))
}

// Scenario 3 from spec.md §8: dual-band creates three interfaces, both
// radios started, bridge wired.
func TestStartDualCreatesThreeInterfaces(t *testing.T) {
	drv := driveriface.New()
	br := &fakeBridger{}
	s := NewWithBridger(drv, br, noopLogger(), clock())

	cfg := model.SoftApConfiguration{SSID: "foo", Band: model.BandAny, CountryCode: "US"}
	res, err := s.StartDual(cfg, testCap(), Hooks{})

	require.NoError(t, err)
	assert.Equal(t, []string{"wlan1", "wlan2"}, res.RadioIfaces)
	assert.Equal(t, "br3", res.BridgeName)
	assert.Equal(t, "br3", res.ApIfaceName)
	assert.Len(t, res.FinalConfigs, 2)
	assert.Equal(t, model.Band2GHz, res.FinalConfigs[0].Band)
	assert.Equal(t, model.Band5GHz, res.FinalConfigs[1].Band)
	assert.ElementsMatch(t, []string{"br3:wlan1", "br3:wlan2"}, br.Added)
}

// Property P5: dual-iface atomicity — if any of the three is missing after
// startup, none remain.
func TestStartDualRollsBackAllThreeOnRadioFailure(t *testing.T) {
	drv := driveriface.New()
	drv.FailSetMac = true // fails inside configureRadio for every iface
	s := NewWithBridger(drv, &fakeBridger{}, noopLogger(), clock())

	cfg := model.SoftApConfiguration{SSID: "foo", Band: model.BandAny, CountryCode: "US"}
	cfg.HasBSSID = true
	_, err := s.StartDual(cfg, testCap(), Hooks{})

	require.Error(t, err)
	assert.ElementsMatch(t, []string{"wlan1", "wlan2", "br3"}, drv.Torndown)
}

func TestStartOWEProducesHiddenAndOpenChildren(t *testing.T) {
	drv := driveriface.New()
	s := NewWithBridger(drv, &fakeBridger{}, noopLogger(), clock())

	cfg := model.SoftApConfiguration{SSID: "foo", Band: model.Band2GHz, CountryCode: "US", Security: model.SecurityOWE}
	res, err := s.StartOWE(cfg, testCap(), Hooks{})

	require.NoError(t, err)
	require.Len(t, res.FinalConfigs, 2)
	assert.Equal(t, model.SecurityOWE, res.FinalConfigs[0].Security)
	assert.True(t, res.FinalConfigs[0].HiddenSSID)
	assert.Equal(t, model.SecurityOpen, res.FinalConfigs[1].Security)
}

func TestTeardownResultNilIsNoOp(t *testing.T) {
	drv := driveriface.New()
	s := New(drv, noopLogger(), clock())
	assert.NotPanics(t, func() { s.TeardownResult(nil) })
}
