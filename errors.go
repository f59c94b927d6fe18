/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cio

import (
	"errors"
	"fmt"
)

var (
	ErrURIInvalid           error = errors.New("uri invalid")
	ErrNodeDoesNotExist      error = errors.New("node does not exist")
	ErrPersistence           error = errors.New("persistence error")
	ErrUnknownPlugin         error = errors.New("unknown plugin")
	ErrInvalidBackendConfig  error = errors.New("invalid backend configuration")
)

// URIInvalid wraps ErrURIInvalid with the offending URI and the parts a
// caller required via Validate.
func URIInvalid(uri string, reason string) error {
	return fmt.Errorf("%w: %q: %s", ErrURIInvalid, uri, reason)
}

// NodeDoesNotExist wraps ErrNodeDoesNotExist with the key that was looked up.
func NodeDoesNotExist(key string) error {
	return fmt.Errorf("%w: %q", ErrNodeDoesNotExist, key)
}

// PersistenceError wraps ErrPersistence with the integrity violation that
// occurred, e.g. a duplicate (key, version) row.
func PersistenceError(reason string) error {
	return fmt.Errorf("%w: %s", ErrPersistence, reason)
}

// UnknownPlugin wraps ErrUnknownPlugin with the extension that had no
// registered plugin.
func UnknownPlugin(ext string) error {
	return fmt.Errorf("%w: %q", ErrUnknownPlugin, ext)
}

// InvalidBackendConfig wraps ErrInvalidBackendConfig with the configuration
// value that could not be resolved to a backend constructor.
func InvalidBackendConfig(value string, reason string) error {
	return fmt.Errorf("%w: %q: %s", ErrInvalidBackendConfig, value, reason)
}
