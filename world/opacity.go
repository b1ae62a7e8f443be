package world

import "github.com/0x4D44/voxelcore/block"

// registryOpacity adapts a block.Registry to the light.Opacity and
// fluid.Registry interfaces so the store's single registry instance backs
// every subsystem (spec.md §9 "Dynamic dispatch over block behavior").
type registryOpacity struct {
	registry block.Registry
}

func (r registryOpacity) Opaque(id uint16) bool {
	d := r.registry.Descriptor(id)
	return d.Opaque
}

func (r registryOpacity) Emission(id uint16) uint8 {
	return r.registry.Descriptor(id).Emission
}

// Opacity returns the store's registry wrapped for the lighting engine.
func (s *Store) Opacity() registryOpacity { return registryOpacity{s.registry} }
