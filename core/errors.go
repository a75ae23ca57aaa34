// Copyright 2025 Poiesic Systems
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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidWine indicates a dataset record failed validation.
	ErrInvalidWine = errors.New("invalid wine record")

	// ErrMissingField indicates a required field is absent or null.
	ErrMissingField = errors.New("required field missing")

	// ErrEmptyTitle indicates the title is blank after trimming.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrInvalidVector indicates an embedding has the wrong number of dimensions.
	ErrInvalidVector = errors.New("vector has wrong dimensions")
)
