package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger(t *testing.T) {
	for _, env := range []string{envLocal, envDev, envProd, "staging", ""} {
		assert.NotNil(t, setupLogger(env), "env %q must yield a usable logger", env)
	}
}
