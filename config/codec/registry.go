// Copyright 2025 The Rivaas Authors
// Copyright 2025 Company.info B.V.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package codec

import (
	"fmt"
	"sync"
)

var (
	registryMu sync.RWMutex
	encoders   = make(map[Type]Encoder)
	decoders   = make(map[Type]Decoder)
)

// RegisterEncoder makes an encoder available under name, replacing any
// previous registration.
func RegisterEncoder(name Type, encoder Encoder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	encoders[name] = encoder
}

// RegisterDecoder makes a decoder available under name, replacing any
// previous registration.
func RegisterDecoder(name Type, decoder Decoder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	decoders[name] = decoder
}

// GetEncoder returns the encoder registered under name.
func GetEncoder(name Type) (Encoder, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	encoder, exists := encoders[name]
	if !exists {
		return nil, fmt.Errorf("encoder not found for type: %s", name)
	}

	return encoder, nil
}

// GetDecoder returns the decoder registered under name.
func GetDecoder(name Type) (Decoder, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	decoder, exists := decoders[name]
	if !exists {
		return nil, fmt.Errorf("decoder not found for type: %s", name)
	}

	return decoder, nil
}
