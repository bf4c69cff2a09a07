package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	graphicsFlags = vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit | vk.QueueTransferBit)
	computeFlags  = vk.QueueFlags(vk.QueueComputeBit | vk.QueueTransferBit)
	transferFlags = vk.QueueFlags(vk.QueueTransferBit)
)

func TestChooseQueueFamilies(t *testing.T) {
	tests := []struct {
		name     string
		families []QueueFamily
		want     VulkanPhysicalDeviceQueueFamilyInfo
	}{
		{
			name:     "single family does everything",
			families: []QueueFamily{{Flags: graphicsFlags, Present: true}},
			want:     VulkanPhysicalDeviceQueueFamilyInfo{0, 0, 0},
		},
		{
			name: "dedicated transfer family",
			families: []QueueFamily{
				{Flags: graphicsFlags, Present: true},
				{Flags: computeFlags},
				{Flags: transferFlags},
			},
			want: VulkanPhysicalDeviceQueueFamilyInfo{0, 0, 2},
		},
		{
			name: "present shares the graphics family",
			families: []QueueFamily{
				{Flags: computeFlags, Present: true},
				{Flags: graphicsFlags, Present: true},
			},
			want: VulkanPhysicalDeviceQueueFamilyInfo{1, 1, 0},
		},
		{
			name: "separate present family",
			families: []QueueFamily{
				{Flags: graphicsFlags},
				{Flags: transferFlags, Present: true},
			},
			want: VulkanPhysicalDeviceQueueFamilyInfo{0, 1, 1},
		},
		{
			name:     "no graphics",
			families: []QueueFamily{{Flags: computeFlags}},
			want:     VulkanPhysicalDeviceQueueFamilyInfo{-1, -1, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChooseQueueFamilies(tt.families))
		})
	}
}

func candidate(name string, kind vk.PhysicalDeviceType) PhysicalDeviceCandidate {
	return PhysicalDeviceCandidate{
		Name:             name,
		Type:             kind,
		Queues:           VulkanPhysicalDeviceQueueFamilyInfo{0, 0, 0},
		Extensions:       []string{"VK_KHR_swapchain"},
		FormatCount:      2,
		PresentModeCount: 1,
	}
}

var frameRequirements = VulkanPhysicalDeviceRequirements{
	Graphics:             true,
	Present:              true,
	Transfer:             true,
	DeviceExtensionNames: []string{"VK_KHR_swapchain"},
}

func TestRequirementsMeets(t *testing.T) {
	ok, reason := frameRequirements.Meets(candidate("gpu", vk.PhysicalDeviceTypeIntegratedGpu))
	assert.True(t, ok)
	assert.Empty(t, reason)

	noPresent := candidate("gpu", vk.PhysicalDeviceTypeDiscreteGpu)
	noPresent.Queues.PresentFamilyIndex = -1
	ok, reason = frameRequirements.Meets(noPresent)
	assert.False(t, ok)
	assert.Contains(t, reason, "present")

	noExtension := candidate("gpu", vk.PhysicalDeviceTypeDiscreteGpu)
	noExtension.Extensions = nil
	ok, reason = frameRequirements.Meets(noExtension)
	assert.False(t, ok)
	assert.Contains(t, reason, "VK_KHR_swapchain")

	noFormats := candidate("gpu", vk.PhysicalDeviceTypeDiscreteGpu)
	noFormats.FormatCount = 0
	ok, _ = frameRequirements.Meets(noFormats)
	assert.False(t, ok)

	discrete := frameRequirements
	discrete.DiscreteGPU = true
	ok, _ = discrete.Meets(candidate("igpu", vk.PhysicalDeviceTypeIntegratedGpu))
	assert.False(t, ok)
}

func TestScoreDevice(t *testing.T) {
	discrete := candidate("dgpu", vk.PhysicalDeviceTypeDiscreteGpu)
	integrated := candidate("igpu", vk.PhysicalDeviceTypeIntegratedGpu)
	cpu := candidate("cpu", vk.PhysicalDeviceTypeCpu)
	assert.Greater(t, ScoreDevice(discrete), ScoreDevice(integrated))
	assert.Greater(t, ScoreDevice(integrated), ScoreDevice(cpu))

	dedicated := integrated
	dedicated.Queues.TransferFamilyIndex = 2
	assert.Greater(t, ScoreDevice(dedicated), ScoreDevice(integrated))
}

func TestSelectCandidate(t *testing.T) {
	t.Run("prefers discrete", func(t *testing.T) {
		index, err := SelectCandidate([]PhysicalDeviceCandidate{
			candidate("igpu", vk.PhysicalDeviceTypeIntegratedGpu),
			candidate("dgpu", vk.PhysicalDeviceTypeDiscreteGpu),
		}, frameRequirements)
		require.NoError(t, err)
		assert.Equal(t, 1, index)
	})

	t.Run("integrated when nothing better", func(t *testing.T) {
		index, err := SelectCandidate([]PhysicalDeviceCandidate{
			candidate("cpu", vk.PhysicalDeviceTypeCpu),
			candidate("igpu", vk.PhysicalDeviceTypeIntegratedGpu),
		}, frameRequirements)
		require.NoError(t, err)
		assert.Equal(t, 1, index)
	})

	t.Run("skips unsuitable", func(t *testing.T) {
		broken := candidate("dgpu", vk.PhysicalDeviceTypeDiscreteGpu)
		broken.Queues.GraphicsFamilyIndex = -1
		index, err := SelectCandidate([]PhysicalDeviceCandidate{
			broken,
			candidate("igpu", vk.PhysicalDeviceTypeIntegratedGpu),
		}, frameRequirements)
		require.NoError(t, err)
		assert.Equal(t, 1, index)
	})

	t.Run("discrete required", func(t *testing.T) {
		required := frameRequirements
		required.DiscreteGPU = true
		_, err := SelectCandidate([]PhysicalDeviceCandidate{
			candidate("igpu", vk.PhysicalDeviceTypeIntegratedGpu),
		}, required)
		assert.ErrorIs(t, err, core.ErrNoSuitableDevice)
		assert.True(t, core.IsFatal(err))
	})

	t.Run("none", func(t *testing.T) {
		_, err := SelectCandidate(nil, frameRequirements)
		assert.ErrorIs(t, err, core.ErrNoSuitableDevice)
	})
}
