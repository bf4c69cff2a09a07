package vulkan

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// fakeDriver is an in-memory Driver. Handles are distinct heap addresses,
// fences and semaphores follow their real state machines, memory is plain
// byte slices and queue work runs at submit and completes on fence wait or
// WaitIdle. Misuse is collected in violations rather than failing calls.
type fakeDriver struct {
	alignment   uint64
	memoryTypes []vk.MemoryPropertyFlags
	support     SwapchainSupportInfo

	// Scripted results, consumed front to back. Empty means success.
	acquireResults []vk.Result
	presentResults []vk.Result
	waitResults    []vk.Result
	submitResults  map[QueueKind][]vk.Result
	pipelineErr    error

	live        map[unsafe.Pointer]string
	created     map[string]int
	events      []string
	violations  []string
	fences      map[vk.Fence]*fakeFence
	semaphores  map[vk.Semaphore]bool
	memory      map[vk.DeviceMemory][]byte
	bound       map[vk.Buffer]vk.DeviceMemory
	buffers     map[vk.Buffer]fakeBuffer
	cmdBuffers  map[vk.CommandBuffer]*fakeCommandBuffer
	poolSets    map[vk.DescriptorPool][]vk.DescriptorSet
	images      map[vk.Swapchain][]vk.Image
	nextImage   map[vk.Swapchain]uint32
	submissions []fakeSubmission
	presents    []uint32
	writes      []vk.WriteDescriptorSet
	configs     []SwapchainConfig
	shaderCode  [][]byte
	pipelines   []*vk.GraphicsPipelineCreateInfo
	clears      []vk.ClearValue
}

type fakeBuffer struct {
	size  vk.DeviceSize
	usage vk.BufferUsageFlags
}

type fakeFence struct {
	signaled bool
	// Command buffer whose submission signals the fence.
	pending vk.CommandBuffer
}

type fakeCopy struct {
	src, dst vk.Buffer
	size     vk.DeviceSize
}

type fakeCommandBuffer struct {
	queue     QueueKind
	recording bool
	pending   bool
	commands  []string
	copies    []fakeCopy
}

type fakeSubmission struct {
	queue         QueueKind
	commandBuffer vk.CommandBuffer
	fence         vk.Fence
	wait          vk.Semaphore
	signal        vk.Semaphore
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		alignment: 256,
		memoryTypes: []vk.MemoryPropertyFlags{
			vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit),
		},
		support: SwapchainSupportInfo{
			Capabilities: vk.SurfaceCapabilities{
				MinImageCount:    2,
				MaxImageCount:    3,
				CurrentExtent:    vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
				MinImageExtent:   vk.Extent2D{Width: 1, Height: 1},
				MaxImageExtent:   vk.Extent2D{Width: 4096, Height: 4096},
				CurrentTransform: vk.SurfaceTransformIdentityBit,
			},
			Formats: []vk.SurfaceFormat{
				{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
				{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			},
			PresentModes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
		},
		submitResults: map[QueueKind][]vk.Result{},
		live:          map[unsafe.Pointer]string{},
		created:       map[string]int{},
		fences:        map[vk.Fence]*fakeFence{},
		semaphores:    map[vk.Semaphore]bool{},
		memory:        map[vk.DeviceMemory][]byte{},
		bound:         map[vk.Buffer]vk.DeviceMemory{},
		buffers:       map[vk.Buffer]fakeBuffer{},
		cmdBuffers:    map[vk.CommandBuffer]*fakeCommandBuffer{},
		poolSets:      map[vk.DescriptorPool][]vk.DescriptorSet{},
		images:        map[vk.Swapchain][]vk.Image{},
		nextImage:     map[vk.Swapchain]uint32{},
	}
}

var _ Driver = (*fakeDriver)(nil)

func (f *fakeDriver) violate(format string, args ...interface{}) {
	f.violations = append(f.violations, fmt.Sprintf(format, args...))
}

func (f *fakeDriver) newHandle(kind string) unsafe.Pointer {
	h := unsafe.Pointer(new(uint64))
	f.live[h] = kind
	f.created[kind]++
	f.events = append(f.events, "create:"+kind)
	return h
}

func (f *fakeDriver) release(kind string, h unsafe.Pointer) {
	if h == nil {
		f.violate("destroy of nil %s", kind)
		return
	}
	have, ok := f.live[h]
	if !ok {
		f.violate("destroy of unknown or already destroyed %s", kind)
		return
	}
	if have != kind {
		f.violate("destroy of %s as %s", have, kind)
	}
	delete(f.live, h)
	f.events = append(f.events, "destroy:"+kind)
}

func (f *fakeDriver) liveCount(kind string) int {
	n := 0
	for _, k := range f.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (f *fakeDriver) isLive(h unsafe.Pointer) bool {
	_, ok := f.live[h]
	return ok
}

func pop(results *[]vk.Result) vk.Result {
	if len(*results) == 0 {
		return vk.Success
	}
	r := (*results)[0]
	*results = (*results)[1:]
	return r
}

// complete finishes the submission signalling fence.
func (f *fakeDriver) complete(fence *fakeFence) {
	if fence.pending != nil {
		if cb, ok := f.cmdBuffers[fence.pending]; ok {
			cb.pending = false
		}
		fence.pending = nil
	}
	fence.signaled = true
}

func (f *fakeDriver) WaitIdle() error {
	f.events = append(f.events, "wait-idle")
	for _, fence := range f.fences {
		if fence.pending != nil {
			f.complete(fence)
		}
	}
	return nil
}

func (f *fakeDriver) MinUniformBufferOffsetAlignment() uint64 { return f.alignment }

func (f *fakeDriver) MemoryTypes() []vk.MemoryPropertyFlags { return f.memoryTypes }

func (f *fakeDriver) SurfaceSupport() (*SwapchainSupportInfo, error) {
	support := f.support
	return &support, nil
}

func (f *fakeDriver) CreateSwapchain(config SwapchainConfig) (vk.Swapchain, error) {
	f.configs = append(f.configs, config)
	sc := vk.Swapchain(f.newHandle("swapchain"))
	images := make([]vk.Image, config.ImageCount)
	for i := range images {
		images[i] = vk.Image(unsafe.Pointer(new(uint64)))
	}
	f.images[sc] = images
	return sc, nil
}

func (f *fakeDriver) SwapchainImages(sc vk.Swapchain) ([]vk.Image, error) {
	images, ok := f.images[sc]
	if !ok {
		return nil, errors.New("unknown swapchain")
	}
	return append([]vk.Image(nil), images...), nil
}

func (f *fakeDriver) DestroySwapchain(sc vk.Swapchain) {
	f.release("swapchain", unsafe.Pointer(sc))
	delete(f.images, sc)
}

func (f *fakeDriver) AcquireNextImage(sc vk.Swapchain, timeout uint64, signal vk.Semaphore) (uint32, vk.Result) {
	if !f.isLive(unsafe.Pointer(sc)) {
		f.violate("acquire on a destroyed swapchain")
	}
	result := pop(&f.acquireResults)
	if result != vk.Success && result != vk.Suboptimal {
		return 0, result
	}
	if f.semaphores[signal] {
		f.violate("acquire signals a semaphore that is already signalled")
	}
	f.semaphores[signal] = true

	index := f.nextImage[sc]
	f.nextImage[sc] = (index + 1) % uint32(len(f.images[sc]))
	return index, result
}

func (f *fakeDriver) Present(sc vk.Swapchain, imageIndex uint32, wait vk.Semaphore) vk.Result {
	if !f.semaphores[wait] {
		f.violate("present waits on an unsignalled semaphore")
	}
	f.semaphores[wait] = false
	f.presents = append(f.presents, imageIndex)
	f.events = append(f.events, fmt.Sprintf("present:%d", imageIndex))
	return pop(&f.presentResults)
}

func (f *fakeDriver) CreateImageView(image vk.Image, format vk.Format) (vk.ImageView, error) {
	return vk.ImageView(f.newHandle("image-view")), nil
}

func (f *fakeDriver) DestroyImageView(view vk.ImageView) {
	f.release("image-view", unsafe.Pointer(view))
}

func (f *fakeDriver) CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	return vk.RenderPass(f.newHandle("render-pass")), nil
}

func (f *fakeDriver) DestroyRenderPass(rp vk.RenderPass) {
	f.release("render-pass", unsafe.Pointer(rp))
}

func (f *fakeDriver) CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	if !f.isLive(unsafe.Pointer(info.RenderPass)) {
		f.violate("framebuffer for a dead render pass")
	}
	for _, view := range info.PAttachments {
		if !f.isLive(unsafe.Pointer(view)) {
			f.violate("framebuffer attachment is not a live view")
		}
	}
	return vk.Framebuffer(f.newHandle("framebuffer")), nil
}

func (f *fakeDriver) DestroyFramebuffer(fb vk.Framebuffer) {
	f.release("framebuffer", unsafe.Pointer(fb))
}

func (f *fakeDriver) CreateShaderModule(code []byte) (vk.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.New("bad shader code")
	}
	f.shaderCode = append(f.shaderCode, code)
	return vk.ShaderModule(f.newHandle("shader-module")), nil
}

func (f *fakeDriver) DestroyShaderModule(m vk.ShaderModule) {
	f.release("shader-module", unsafe.Pointer(m))
}

func (f *fakeDriver) CreatePipelineLayout(setLayouts []vk.DescriptorSetLayout) (vk.PipelineLayout, error) {
	return vk.PipelineLayout(f.newHandle("pipeline-layout")), nil
}

func (f *fakeDriver) DestroyPipelineLayout(l vk.PipelineLayout) {
	f.release("pipeline-layout", unsafe.Pointer(l))
}

func (f *fakeDriver) CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	if f.pipelineErr != nil {
		return nil, f.pipelineErr
	}
	for _, stage := range info.PStages {
		if !f.isLive(unsafe.Pointer(stage.Module)) {
			f.violate("pipeline stage uses a dead shader module")
		}
	}
	f.pipelines = append(f.pipelines, info)
	return vk.Pipeline(f.newHandle("pipeline")), nil
}

func (f *fakeDriver) DestroyPipeline(p vk.Pipeline) {
	f.release("pipeline", unsafe.Pointer(p))
}

func (f *fakeDriver) CreateDescriptorSetLayout(bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	return vk.DescriptorSetLayout(f.newHandle("descriptor-set-layout")), nil
}

func (f *fakeDriver) DestroyDescriptorSetLayout(l vk.DescriptorSetLayout) {
	f.release("descriptor-set-layout", unsafe.Pointer(l))
}

func (f *fakeDriver) CreateDescriptorPool(maxSets uint32, sizes []vk.DescriptorPoolSize) (vk.DescriptorPool, error) {
	return vk.DescriptorPool(f.newHandle("descriptor-pool")), nil
}

func (f *fakeDriver) DestroyDescriptorPool(pool vk.DescriptorPool) {
	for _, set := range f.poolSets[pool] {
		f.release("descriptor-set", unsafe.Pointer(set))
	}
	delete(f.poolSets, pool)
	f.release("descriptor-pool", unsafe.Pointer(pool))
}

func (f *fakeDriver) AllocateDescriptorSets(pool vk.DescriptorPool, layout vk.DescriptorSetLayout, count uint32) ([]vk.DescriptorSet, error) {
	sets := make([]vk.DescriptorSet, count)
	for i := range sets {
		sets[i] = vk.DescriptorSet(f.newHandle("descriptor-set"))
	}
	f.poolSets[pool] = append(f.poolSets[pool], sets...)
	return sets, nil
}

func (f *fakeDriver) UpdateDescriptorSets(writes []vk.WriteDescriptorSet) {
	f.writes = append(f.writes, writes...)
}

func (f *fakeDriver) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags) (vk.Buffer, vk.MemoryRequirements, error) {
	buffer := vk.Buffer(f.newHandle("buffer"))
	f.buffers[buffer] = fakeBuffer{size: size, usage: usage}
	return buffer, vk.MemoryRequirements{Size: size, Alignment: 4, MemoryTypeBits: 0xFFFFFFFF}, nil
}

func (f *fakeDriver) DestroyBuffer(buffer vk.Buffer) {
	f.release("buffer", unsafe.Pointer(buffer))
	delete(f.buffers, buffer)
	delete(f.bound, buffer)
}

func (f *fakeDriver) AllocateMemory(size vk.DeviceSize, memoryTypeIndex uint32) (vk.DeviceMemory, error) {
	if int(memoryTypeIndex) >= len(f.memoryTypes) {
		f.violate("memory type %d out of range", memoryTypeIndex)
	}
	memory := vk.DeviceMemory(f.newHandle("memory"))
	f.memory[memory] = make([]byte, size)
	return memory, nil
}

func (f *fakeDriver) FreeMemory(memory vk.DeviceMemory) {
	f.release("memory", unsafe.Pointer(memory))
	delete(f.memory, memory)
}

func (f *fakeDriver) BindBufferMemory(buffer vk.Buffer, memory vk.DeviceMemory) error {
	f.bound[buffer] = memory
	return nil
}

func (f *fakeDriver) WriteMemory(memory vk.DeviceMemory, offset vk.DeviceSize, data []byte) error {
	mem, ok := f.memory[memory]
	if !ok {
		return errors.New("write to unknown memory")
	}
	if int(offset)+len(data) > len(mem) {
		return fmt.Errorf("write of %d bytes at %d overflows %d", len(data), offset, len(mem))
	}
	copy(mem[offset:], data)
	return nil
}

func (f *fakeDriver) ReadMemory(memory vk.DeviceMemory, offset, size vk.DeviceSize) ([]byte, error) {
	mem, ok := f.memory[memory]
	if !ok {
		return nil, errors.New("read from unknown memory")
	}
	if offset+size > vk.DeviceSize(len(mem)) {
		return nil, errors.New("read out of range")
	}
	return append([]byte(nil), mem[offset:offset+size]...), nil
}

func (f *fakeDriver) AllocateCommandBuffers(queue QueueKind, count uint32) ([]vk.CommandBuffer, error) {
	out := make([]vk.CommandBuffer, count)
	for i := range out {
		out[i] = vk.CommandBuffer(f.newHandle("command-buffer"))
		f.cmdBuffers[out[i]] = &fakeCommandBuffer{queue: queue}
	}
	return out, nil
}

func (f *fakeDriver) FreeCommandBuffers(queue QueueKind, buffers []vk.CommandBuffer) {
	for _, b := range buffers {
		cb, ok := f.cmdBuffers[b]
		if ok && cb.pending {
			f.violate("free of a command buffer that is still executing")
		}
		if ok && cb.queue != queue {
			f.violate("command buffer freed to the %s pool, allocated from %s", queue, cb.queue)
		}
		delete(f.cmdBuffers, b)
		f.release("command-buffer", unsafe.Pointer(b))
	}
}

func (f *fakeDriver) cmd(buffer vk.CommandBuffer) *fakeCommandBuffer {
	cb, ok := f.cmdBuffers[buffer]
	if !ok {
		f.violate("use of unknown command buffer")
		return &fakeCommandBuffer{}
	}
	return cb
}

func (f *fakeDriver) record(buffer vk.CommandBuffer, command string) {
	cb := f.cmd(buffer)
	if !cb.recording {
		f.violate("%s recorded outside begin/end", command)
	}
	cb.commands = append(cb.commands, command)
}

func (f *fakeDriver) BeginCommandBuffer(buffer vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error {
	cb := f.cmd(buffer)
	if cb.pending {
		f.violate("begin on a command buffer that is still executing")
	}
	cb.recording = true
	cb.commands = nil
	cb.copies = nil
	return nil
}

func (f *fakeDriver) EndCommandBuffer(buffer vk.CommandBuffer) error {
	cb := f.cmd(buffer)
	if !cb.recording {
		f.violate("end without begin")
	}
	cb.recording = false
	return nil
}

func (f *fakeDriver) CmdBeginRenderPass(buffer vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	f.clears = append(f.clears, info.PClearValues...)
	f.record(buffer, "begin-render-pass")
}

func (f *fakeDriver) CmdEndRenderPass(buffer vk.CommandBuffer) {
	f.record(buffer, "end-render-pass")
}

func (f *fakeDriver) CmdBindPipeline(buffer vk.CommandBuffer, pipeline vk.Pipeline) {
	f.record(buffer, "bind-pipeline")
}

func (f *fakeDriver) CmdBindVertexBuffer(buffer vk.CommandBuffer, vertexBuffer vk.Buffer, offset vk.DeviceSize) {
	f.record(buffer, fmt.Sprintf("bind-vertex-buffer@%d", offset))
}

func (f *fakeDriver) CmdBindIndexBuffer(buffer vk.CommandBuffer, indexBuffer vk.Buffer, offset vk.DeviceSize) {
	f.record(buffer, fmt.Sprintf("bind-index-buffer@%d", offset))
}

func (f *fakeDriver) CmdBindDescriptorSet(buffer vk.CommandBuffer, layout vk.PipelineLayout, set vk.DescriptorSet) {
	if !f.isLive(unsafe.Pointer(set)) {
		f.violate("bind of a dead descriptor set")
	}
	f.record(buffer, "bind-descriptor-set")
}

func (f *fakeDriver) CmdDrawIndexed(buffer vk.CommandBuffer, indexCount uint32) {
	f.record(buffer, fmt.Sprintf("draw-indexed:%d", indexCount))
}

func (f *fakeDriver) CmdCopyBuffer(buffer vk.CommandBuffer, src, dst vk.Buffer, size vk.DeviceSize) {
	f.record(buffer, "copy-buffer")
	cb := f.cmd(buffer)
	cb.copies = append(cb.copies, fakeCopy{src: src, dst: dst, size: size})
}

func (f *fakeDriver) CreateFence(signaled bool) (vk.Fence, error) {
	fence := vk.Fence(f.newHandle("fence"))
	f.fences[fence] = &fakeFence{signaled: signaled}
	return fence, nil
}

func (f *fakeDriver) DestroyFence(fence vk.Fence) {
	if ff, ok := f.fences[fence]; ok && ff.pending != nil {
		f.violate("destroy of a fence with pending work")
	}
	delete(f.fences, fence)
	f.release("fence", unsafe.Pointer(fence))
}

func (f *fakeDriver) WaitForFence(fence vk.Fence, timeout uint64) vk.Result {
	ff, ok := f.fences[fence]
	if !ok {
		f.violate("wait on unknown fence")
		return vk.ErrorDeviceLost
	}
	if result := pop(&f.waitResults); result != vk.Success {
		return result
	}
	if ff.signaled {
		return vk.Success
	}
	if ff.pending == nil {
		// Nothing will ever signal it.
		return vk.Timeout
	}
	f.complete(ff)
	f.events = append(f.events, "fence-signalled")
	return vk.Success
}

func (f *fakeDriver) ResetFence(fence vk.Fence) error {
	ff, ok := f.fences[fence]
	if !ok {
		return errors.New("reset of unknown fence")
	}
	if ff.pending != nil {
		f.violate("reset of a fence with pending work")
	}
	ff.signaled = false
	return nil
}

func (f *fakeDriver) CreateSemaphore() (vk.Semaphore, error) {
	s := vk.Semaphore(f.newHandle("semaphore"))
	f.semaphores[s] = false
	return s, nil
}

func (f *fakeDriver) DestroySemaphore(s vk.Semaphore) {
	delete(f.semaphores, s)
	f.release("semaphore", unsafe.Pointer(s))
}

func (f *fakeDriver) Submit(queue QueueKind, info SubmitInfo) vk.Result {
	results := f.submitResults[queue]
	result := pop(&results)
	f.submitResults[queue] = results
	if result != vk.Success {
		return result
	}
	cb := f.cmd(info.CommandBuffer)
	if cb.recording {
		f.violate("submit of a command buffer still recording")
	}
	if cb.pending {
		f.violate("submit of a command buffer whose previous submission has not completed")
	}
	if info.Wait != vk.NullSemaphore {
		if !f.semaphores[info.Wait] {
			f.violate("submit waits on an unsignalled semaphore")
		}
		f.semaphores[info.Wait] = false
	}
	if info.Signal != vk.NullSemaphore {
		f.semaphores[info.Signal] = true
	}
	if info.Fence != vk.NullFence {
		ff, ok := f.fences[info.Fence]
		switch {
		case !ok:
			f.violate("submit with unknown fence")
		case ff.signaled:
			f.violate("submit with a fence that is still signalled")
		default:
			ff.pending = info.CommandBuffer
		}
	}
	cb.pending = info.Fence != vk.NullFence

	for _, c := range cb.copies {
		src := f.memory[f.bound[c.src]]
		dst := f.memory[f.bound[c.dst]]
		copy(dst[:c.size], src[:c.size])
	}

	f.submissions = append(f.submissions, fakeSubmission{
		queue:         queue,
		commandBuffer: info.CommandBuffer,
		fence:         info.Fence,
		wait:          info.Wait,
		signal:        info.Signal,
	})
	f.events = append(f.events, "submit:"+queue.String())
	return vk.Success
}

// fakeWindow is a window whose drawable size the test controls.
type fakeWindow struct {
	width, height uint32
	// FramebufferSize reports 0x0 this many times first.
	minimizedPolls int
	closed         bool
	waits          int
	// Runs on every WaitEvents.
	onWait func(w *fakeWindow)
}

func (w *fakeWindow) FramebufferSize() (uint32, uint32) {
	if w.minimizedPolls > 0 {
		w.minimizedPolls--
		return 0, 0
	}
	return w.width, w.height
}

func (w *fakeWindow) ShouldClose() bool { return w.closed }

func (w *fakeWindow) WaitEvents() {
	w.waits++
	if w.onWait != nil {
		w.onWait(w)
	}
}

func (w *fakeWindow) InstanceProcAddress() unsafe.Pointer { return nil }

func (w *fakeWindow) RequiredInstanceExtensions() []string { return nil }

func (w *fakeWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	return vk.NullSurface, errors.New("no surface in tests")
}

// spirv returns a blob with the SPIR-V magic and n-1 filler words.
func spirv(n int) []byte {
	code := make([]byte, 4*n)
	code[0], code[1], code[2], code[3] = 0x03, 0x02, 0x23, 0x07
	return code
}

// newTestContext wires a context for a 800x600 window on a fake driver with
// the coloured quad already uploaded.
func newTestContext(d *fakeDriver, w *fakeWindow) *VulkanContext {
	ctx := &VulkanContext{
		Driver:       d,
		Window:       w,
		FenceTimeout: 1e9,
		ClearColor:   [4]float32{0, 0, 0.2, 1},
		CullMode:     vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:    vk.FrontFaceClockwise,
		Shaders:      ShaderSet{Vertex: spirv(8), Fragment: spirv(6)},
		UniformSize:  metadata.TransMatsSize,
	}
	layout, _ := d.CreateDescriptorSetLayout(nil)
	ctx.DescriptorSetLayout = layout

	mesh := metadata.QuadPosCol()
	data, indexOffset := mesh.Pack()
	buffer, err := NewResourceUploader(d, ctx.FenceTimeout).Upload(
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit|vk.BufferUsageIndexBufferBit), data)
	if err != nil {
		panic(err)
	}
	ctx.Mesh = &MeshBuffer{
		Buffer:      buffer,
		IndexOffset: indexOffset,
		IndexCount:  mesh.IndexCount(),
		Layout:      mesh.Layout,
	}
	return ctx
}
