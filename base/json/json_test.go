// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type neighbor struct {
	Id    string
	Score float64
}

func TestMarshal(t *testing.T) {
	data, err := Marshal([]neighbor{{"a", 1.0 / 18}})
	assert.NoError(t, err)
	var neighbors []neighbor
	assert.NoError(t, Unmarshal(data, &neighbors))
	assert.Equal(t, []neighbor{{"a", 1.0 / 18}}, neighbors)
}

func TestUnmarshalEmpty(t *testing.T) {
	neighbors := []neighbor{{"a", 1}}
	assert.NoError(t, Unmarshal(nil, &neighbors))
	assert.Nil(t, neighbors)
}
