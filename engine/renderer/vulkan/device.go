package vulkan

import (
	"fmt"
	"sort"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

// VulkanDevice is the selected physical device, the logical device created
// on it and its queues. It implements Driver.
type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	Surface            vk.Surface
	Name               string
	GraphicsQueueIndex int32
	PresentQueueIndex  int32
	TransferQueueIndex int32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue
	TransferQueue vk.Queue

	GraphicsCommandPool vk.CommandPool
	TransferCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Memory     vk.PhysicalDeviceMemoryProperties

	memoryTypes []vk.MemoryPropertyFlags
	locks       *VulkanLockPool
}

type VulkanPhysicalDeviceRequirements struct {
	Graphics             bool
	Present              bool
	Transfer             bool
	DeviceExtensionNames []string
	DiscreteGPU          bool
}

// Family indices, -1 when the device has no such family.
type VulkanPhysicalDeviceQueueFamilyInfo struct {
	GraphicsFamilyIndex int32
	PresentFamilyIndex  int32
	TransferFamilyIndex int32
}

// QueueFamily is what device selection needs to know about a family.
type QueueFamily struct {
	Flags   vk.QueueFlags
	Present bool
}

// ChooseQueueFamilies picks the graphics and present families, preferring
// one family for both, and the transfer family with the fewest other
// capabilities, which is most likely a dedicated transfer queue.
func ChooseQueueFamilies(families []QueueFamily) VulkanPhysicalDeviceQueueFamilyInfo {
	info := VulkanPhysicalDeviceQueueFamilyInfo{-1, -1, -1}
	minTransferScore := 255
	for i, family := range families {
		currentTransferScore := 0
		graphics := family.Flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
		if graphics {
			if info.GraphicsFamilyIndex < 0 {
				info.GraphicsFamilyIndex = int32(i)
			}
			currentTransferScore++
		}
		if family.Flags&vk.QueueFlags(vk.QueueComputeBit) != 0 {
			currentTransferScore++
		}
		if family.Flags&vk.QueueFlags(vk.QueueTransferBit) != 0 || graphics {
			// Take the index if it is the current lowest.
			if currentTransferScore < minTransferScore {
				minTransferScore = currentTransferScore
				info.TransferFamilyIndex = int32(i)
			}
		}
		if family.Present && info.PresentFamilyIndex < 0 {
			info.PresentFamilyIndex = int32(i)
		}
	}
	// Presenting from the graphics family saves an ownership transfer.
	if g := info.GraphicsFamilyIndex; g >= 0 && families[g].Present {
		info.PresentFamilyIndex = g
	}
	return info
}

// PhysicalDeviceCandidate is everything selection looks at, gathered up
// front so that the decision itself does not touch the API.
type PhysicalDeviceCandidate struct {
	Name             string
	Type             vk.PhysicalDeviceType
	Queues           VulkanPhysicalDeviceQueueFamilyInfo
	Extensions       []string
	FormatCount      int
	PresentModeCount int
}

// Meets reports whether the candidate satisfies r, and why not.
func (r VulkanPhysicalDeviceRequirements) Meets(c PhysicalDeviceCandidate) (bool, string) {
	if r.DiscreteGPU && c.Type != vk.PhysicalDeviceTypeDiscreteGpu {
		return false, "device is not a discrete GPU, and one is required"
	}
	if r.Graphics && c.Queues.GraphicsFamilyIndex < 0 {
		return false, "no graphics queue"
	}
	if r.Present && c.Queues.PresentFamilyIndex < 0 {
		return false, "no present queue"
	}
	if r.Transfer && c.Queues.TransferFamilyIndex < 0 {
		return false, "no transfer queue"
	}
	for _, want := range r.DeviceExtensionNames {
		found := false
		for _, have := range c.Extensions {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false, fmt.Sprintf("required extension not found: '%s'", want)
		}
	}
	if c.FormatCount < 1 || c.PresentModeCount < 1 {
		return false, "required swapchain support not present"
	}
	return true, ""
}

// ScoreDevice ranks suitable devices: discrete before integrated before
// everything else, a dedicated transfer family breaking ties.
func ScoreDevice(c PhysicalDeviceCandidate) int {
	score := 0
	switch c.Type {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		score = 1000
	case vk.PhysicalDeviceTypeIntegratedGpu:
		score = 500
	case vk.PhysicalDeviceTypeVirtualGpu:
		score = 100
	case vk.PhysicalDeviceTypeCpu:
		score = 10
	default:
		score = 1
	}
	if c.Queues.TransferFamilyIndex >= 0 && c.Queues.TransferFamilyIndex != c.Queues.GraphicsFamilyIndex {
		score += 10
	}
	return score
}

// SelectCandidate returns the index of the best candidate meeting r.
func SelectCandidate(candidates []PhysicalDeviceCandidate, r VulkanPhysicalDeviceRequirements) (int, error) {
	type ranked struct{ index, score int }
	var suitable []ranked
	for i, c := range candidates {
		ok, reason := r.Meets(c)
		if !ok {
			core.LogInfo("Skipping device '%s': %s.", c.Name, reason)
			continue
		}
		suitable = append(suitable, ranked{i, ScoreDevice(c)})
	}
	if len(suitable) == 0 {
		return -1, core.Fatal("select physical device", core.ErrNoSuitableDevice)
	}
	sort.SliceStable(suitable, func(a, b int) bool { return suitable[a].score > suitable[b].score })
	return suitable[0].index, nil
}

func deviceExtensions(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success {
		return nil, resultError("enumerate device extensions", res)
	}
	properties := make([]vk.ExtensionProperties, count)
	if count > 0 {
		if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, properties); res != vk.Success {
			return nil, resultError("enumerate device extensions", res)
		}
	}
	names := make([]string, 0, count)
	for i := range properties {
		properties[i].Deref()
		end := FindFirstZeroInByteArray(properties[i].ExtensionName[:])
		names = append(names, vk.ToString(properties[i].ExtensionName[:end+1]))
	}
	return names, nil
}

func querySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface) (*SwapchainSupportInfo, error) {
	supportInfo := &SwapchainSupportInfo{}
	// Surface capabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &supportInfo.Capabilities); res != vk.Success {
		return nil, resultError("get surface capabilities", res)
	}
	supportInfo.Capabilities.Deref()
	supportInfo.Capabilities.CurrentExtent.Deref()
	supportInfo.Capabilities.MinImageExtent.Deref()
	supportInfo.Capabilities.MaxImageExtent.Deref()

	// Surface formats
	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil); res != vk.Success {
		return nil, resultError("get surface formats", res)
	}
	if formatCount != 0 {
		supportInfo.Formats = make([]vk.SurfaceFormat, formatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, supportInfo.Formats); res != vk.Success {
			return nil, resultError("get surface formats", res)
		}
		for i := range supportInfo.Formats {
			supportInfo.Formats[i].Deref()
		}
	}

	// Present modes
	var presentModeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, nil); res != vk.Success {
		return nil, resultError("get surface present modes", res)
	}
	if presentModeCount != 0 {
		supportInfo.PresentModes = make([]vk.PresentMode, presentModeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, supportInfo.PresentModes); res != vk.Success {
			return nil, resultError("get surface present modes", res)
		}
	}
	return supportInfo, nil
}

func describeDevice(device vk.PhysicalDevice, surface vk.Surface) (PhysicalDeviceCandidate, error) {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()

	end := FindFirstZeroInByteArray(properties.DeviceName[:])
	c := PhysicalDeviceCandidate{
		Name: vk.ToString(properties.DeviceName[:end+1]),
		Type: properties.DeviceType,
	}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	families := make([]QueueFamily, queueFamilyCount)
	for i := range queueFamilies {
		queueFamilies[i].Deref()
		var supportsPresent vk.Bool32 = vk.False
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), surface, &supportsPresent); res != vk.Success {
			return c, resultError("get surface support", res)
		}
		families[i] = QueueFamily{Flags: queueFamilies[i].QueueFlags, Present: supportsPresent == vk.True}
	}
	c.Queues = ChooseQueueFamilies(families)

	// Print out some info about the device
	core.LogInfo("Graphics | Present | Transfer | Name")
	core.LogInfo("      %2d |      %2d |       %2d | %s",
		c.Queues.GraphicsFamilyIndex,
		c.Queues.PresentFamilyIndex,
		c.Queues.TransferFamilyIndex,
		c.Name)

	extensions, err := deviceExtensions(device)
	if err != nil {
		return c, err
	}
	c.Extensions = extensions

	support, err := querySwapchainSupport(device, surface)
	if err != nil {
		return c, err
	}
	c.FormatCount = len(support.Formats)
	c.PresentModeCount = len(support.PresentModes)
	return c, nil
}

func selectPhysicalDevice(instance vk.Instance, surface vk.Surface, requirements VulkanPhysicalDeviceRequirements) (vk.PhysicalDevice, PhysicalDeviceCandidate, error) {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(instance, &physicalDeviceCount, nil); res != vk.Success {
		return nil, PhysicalDeviceCandidate{}, resultError("enumerate physical devices", res)
	}
	if physicalDeviceCount == 0 {
		core.LogFatal("No devices which support Vulkan were found.")
		return nil, PhysicalDeviceCandidate{}, core.Fatal("enumerate physical devices", core.ErrNoSuitableDevice)
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return nil, PhysicalDeviceCandidate{}, resultError("enumerate physical devices", res)
	}

	candidates := make([]PhysicalDeviceCandidate, len(physicalDevices))
	for i, device := range physicalDevices {
		c, err := describeDevice(device, surface)
		if err != nil {
			return nil, PhysicalDeviceCandidate{}, err
		}
		candidates[i] = c
	}

	index, err := SelectCandidate(candidates, requirements)
	if err != nil {
		core.LogError("No physical devices were found which meet the requirements.")
		return nil, PhysicalDeviceCandidate{}, err
	}
	return physicalDevices[index], candidates[index], nil
}

func logDeviceInfo(c PhysicalDeviceCandidate, properties vk.PhysicalDeviceProperties, memory vk.PhysicalDeviceMemoryProperties) {
	core.LogInfo("Selected device: '%s'.", c.Name)
	// GPU type, etc.
	switch properties.DeviceType {
	default:
		fallthrough
	case vk.PhysicalDeviceTypeOther:
		core.LogInfo("GPU type is Unknown.")
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	}

	core.LogInfo(
		"GPU Driver version: %d.%d.%d",
		vk.Version.Major(vk.Version(properties.DriverVersion)),
		vk.Version.Minor(vk.Version(properties.DriverVersion)),
		vk.Version.Patch(vk.Version(properties.DriverVersion)),
	)
	// Vulkan API version.
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version.Major(vk.Version(properties.ApiVersion)),
		vk.Version.Minor(vk.Version(properties.ApiVersion)),
		vk.Version.Patch(vk.Version(properties.ApiVersion)),
	)

	// Memory information
	for j := 0; j < int(memory.MemoryHeapCount); j++ {
		memory.MemoryHeaps[j].Deref()
		memorySizeGib := float64(memory.MemoryHeaps[j].Size) / 1024.0 / 1024.0 / 1024.0
		if vk.MemoryHeapFlagBits(memory.MemoryHeaps[j].Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			core.LogInfo("Local GPU memory: %.2f GiB", memorySizeGib)
		} else {
			core.LogInfo("Shared System memory: %.2f GiB", memorySizeGib)
		}
	}
}

// DeviceCreate selects a physical device for surface and creates the
// logical device, its queues and command pools.
func DeviceCreate(instance vk.Instance, surface vk.Surface, requirements VulkanPhysicalDeviceRequirements) (*VulkanDevice, error) {
	physicalDevice, candidate, err := selectPhysicalDevice(instance, surface, requirements)
	if err != nil {
		return nil, err
	}

	device := &VulkanDevice{
		PhysicalDevice:     physicalDevice,
		Surface:            surface,
		Name:               candidate.Name,
		GraphicsQueueIndex: candidate.Queues.GraphicsFamilyIndex,
		PresentQueueIndex:  candidate.Queues.PresentFamilyIndex,
		TransferQueueIndex: candidate.Queues.TransferFamilyIndex,
		locks:              NewVulkanLockPool(),
	}

	// Keep a copy of properties and memory info for later use.
	vk.GetPhysicalDeviceProperties(physicalDevice, &device.Properties)
	device.Properties.Deref()
	device.Properties.Limits.Deref()
	vk.GetPhysicalDeviceMemoryProperties(physicalDevice, &device.Memory)
	device.Memory.Deref()
	device.memoryTypes = make([]vk.MemoryPropertyFlags, device.Memory.MemoryTypeCount)
	for i := range device.memoryTypes {
		device.Memory.MemoryTypes[i].Deref()
		device.memoryTypes[i] = device.Memory.MemoryTypes[i].PropertyFlags
	}
	logDeviceInfo(candidate, device.Properties, device.Memory)

	core.LogInfo("Creating logical device...")

	// NOTE: Do not create additional queues for shared indices.
	indices := []uint32{uint32(device.GraphicsQueueIndex)}
	for _, index := range []int32{device.PresentQueueIndex, device.TransferQueueIndex} {
		shared := false
		for _, have := range indices {
			if have == uint32(index) {
				shared = true
			}
		}
		if !shared {
			indices = append(indices, uint32(index))
		}
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: indices[i],
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
		device.locks.SetQueueFamily(indices[i])
	}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	for _, name := range candidate.Extensions {
		if name == "VK_KHR_portability_subset" {
			core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
			extensionNames = append(extensionNames, name)
			break
		}
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
		// Deprecated and ignored, so pass nothing.
		EnabledLayerCount:   0,
		PpEnabledLayerNames: nil,
	}

	// Create the device.
	if res := vk.CreateDevice(physicalDevice, &deviceCreateInfo, nil, &device.LogicalDevice); res != vk.Success {
		return nil, resultError("create logical device", res)
	}
	core.LogInfo("Logical device created.")

	// Get queues.
	vk.GetDeviceQueue(device.LogicalDevice, uint32(device.GraphicsQueueIndex), 0, &device.GraphicsQueue)
	vk.GetDeviceQueue(device.LogicalDevice, uint32(device.PresentQueueIndex), 0, &device.PresentQueue)
	vk.GetDeviceQueue(device.LogicalDevice, uint32(device.TransferQueueIndex), 0, &device.TransferQueue)
	core.LogInfo("Queues obtained.")

	// Create command pools for the graphics and transfer queues.
	graphicsPool, err := device.createCommandPool(uint32(device.GraphicsQueueIndex),
		vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit))
	if err != nil {
		device.Destroy()
		return nil, err
	}
	device.GraphicsCommandPool = graphicsPool

	transferPool, err := device.createCommandPool(uint32(device.TransferQueueIndex),
		vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit))
	if err != nil {
		device.Destroy()
		return nil, err
	}
	device.TransferCommandPool = transferPool
	core.LogInfo("Command pools created.")

	return device, nil
}

func (vd *VulkanDevice) createCommandPool(family uint32, flags vk.CommandPoolCreateFlags) (vk.CommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
		Flags:            flags,
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(vd.LogicalDevice, &poolCreateInfo, nil, &pool); res != vk.Success {
		return nil, resultError("create command pool", res)
	}
	return pool, nil
}

func (vd *VulkanDevice) Destroy() {
	// Unset queues
	vd.GraphicsQueue = nil
	vd.PresentQueue = nil
	vd.TransferQueue = nil

	core.LogInfo("Destroying command pools...")
	if vd.GraphicsCommandPool != nil {
		vk.DestroyCommandPool(vd.LogicalDevice, vd.GraphicsCommandPool, nil)
		vd.GraphicsCommandPool = nil
	}
	if vd.TransferCommandPool != nil {
		vk.DestroyCommandPool(vd.LogicalDevice, vd.TransferCommandPool, nil)
		vd.TransferCommandPool = nil
	}

	// Destroy logical device
	core.LogInfo("Destroying logical device...")
	if vd.LogicalDevice != nil {
		vk.DestroyDevice(vd.LogicalDevice, nil)
		vd.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	vd.PhysicalDevice = nil
	vd.GraphicsQueueIndex = -1
	vd.PresentQueueIndex = -1
	vd.TransferQueueIndex = -1
}
