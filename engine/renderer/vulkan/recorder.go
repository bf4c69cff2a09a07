package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

// CommandRecorder fills the per-image command buffers of a generation.
type CommandRecorder struct {
	context *VulkanContext
}

func NewCommandRecorder(context *VulkanContext) *CommandRecorder {
	return &CommandRecorder{context: context}
}

// Record writes the draw of the context mesh into every command buffer of
// sc. It must run again whenever the buffers are reallocated.
func (cr *CommandRecorder) Record(sc *Swapchain) error {
	d := cr.context.Driver
	mesh := cr.context.Mesh
	if mesh == nil || mesh.Buffer == nil {
		return core.Fatal("record commands", fmt.Errorf("no mesh uploaded"))
	}
	count := len(sc.CommandBuffers)
	if count != len(sc.Framebuffers) || sc.Uniforms == nil || count != len(sc.Uniforms.DescriptorSets) {
		return core.Fatal("record commands", fmt.Errorf("%d command buffers for %d framebuffers", count, len(sc.Framebuffers)))
	}

	for i, cb := range sc.CommandBuffers {
		if err := cb.Begin(d, false, false, false); err != nil {
			return err
		}
		sc.Renderpass.Begin(d, cb, sc.Framebuffers[i].Handle)

		d.CmdBindPipeline(cb.Handle, sc.Pipeline.Handle)
		d.CmdBindVertexBuffer(cb.Handle, mesh.Buffer.Handle, vk.DeviceSize(mesh.VertexOffset))
		d.CmdBindIndexBuffer(cb.Handle, mesh.Buffer.Handle, vk.DeviceSize(mesh.IndexOffset))
		d.CmdBindDescriptorSet(cb.Handle, sc.Pipeline.PipelineLayout, sc.Uniforms.DescriptorSets[i])
		d.CmdDrawIndexed(cb.Handle, mesh.IndexCount)

		sc.Renderpass.End(d, cb)
		if err := cb.End(d); err != nil {
			return err
		}
		cb.Generation = sc.ID
	}
	core.LogDebug("Recorded %d command buffers for swapchain %s.", count, sc.ID)
	return nil
}
