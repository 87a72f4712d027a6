package emitmapper

import "github.com/niubilitynetcore/EmitMapper/providers"

// ConverterDescriptor and GenericConverterProvider are the public aliases
// for the generic converter provider protocol. The implementation lives in
// package providers so it can be depended on by both emitmapper and,
// independently, by callers who only want the built-in providers without
// the rest of the engine.
type ConverterDescriptor = providers.ConverterDescriptor
type GenericConverterProvider = providers.GenericConverterProvider

// CollectionToArrayProvider is the built-in Collection<T> → U[] provider
// installed by default.
func CollectionToArrayProvider() GenericConverterProvider { return providers.Collection{} }

// MapToStructProvider is the built-in map[string]any → struct provider,
// also installed by default.
func MapToStructProvider() GenericConverterProvider { return providers.MapToStruct{} }
