package agent

import (
	"fmt"
	"reflect"
	"sync"
)

// Type represents a specific type of an agent Config. Config's with
// this type can create Agents of the corresponding type.
type Type string

const (
	// SelfDDPGMLP is a self-triggered DDPG agent with a dual-head MLP
	// policy and an MLP critic
	SelfDDPGMLP Type = "SelfDDPG-MLP"
)

// Registered types with the package. Once a Type has been registered
// with this map, a TypedConfig with that type can be unmarshalled.
//
// No Type's are registered with this package upon initialization.
// Each separate package is in charge of registering its Type with
// the package separately to avoid circular imports.
var (
	registeredTypes = make(map[Type]reflect.Type)
	registerMutex   sync.RWMutex
)

// Register registers an agent's Type with a concrete Config type so
// that upon deserialization of a TypedConfig, Configs of type
// agentType are deserialized into the concrete type of config.
// Registering the same Type twice panics.
func Register(agentType Type, config Config) {
	registerMutex.Lock()
	defer registerMutex.Unlock()

	if _, ok := registeredTypes[agentType]; ok {
		panic(fmt.Sprintf("register: agent type %v already registered",
			agentType))
	}
	registeredTypes[agentType] = reflect.TypeOf(config)
}

// registered returns the concrete Config type registered with t
func registered(t Type) (reflect.Type, bool) {
	registerMutex.RLock()
	defer registerMutex.RUnlock()

	ty, ok := registeredTypes[t]
	return ty, ok
}
