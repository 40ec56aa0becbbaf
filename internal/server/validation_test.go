package server

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDisplayName(t *testing.T) {
	name, err := validateDisplayName("  Ada   Lovelace ")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)

	name, err = validateDisplayName("Zoë-Ω!")
	require.NoError(t, err)
	assert.Equal(t, "Zoë-Ω!", name)

	_, err = validateDisplayName("   ")
	assert.Error(t, err)
	_, err = validateDisplayName(strings.Repeat("a", maxDisplayNameLength+1))
	assert.Error(t, err)
	_, err = validateDisplayName("<b>bold</b>")
	assert.Error(t, err)
	_, err = validateDisplayName("tab\there")
	require.NoError(t, err)
}

func TestNormalizeRequests(t *testing.T) {
	join := JoinSessionRequest{Code: " abcdef ", UserID: " u1 ", DisplayName: " Ada  L "}
	join.normalize()
	assert.Equal(t, "ABCDEF", join.Code)
	assert.Equal(t, "u1", join.UserID)
	assert.Equal(t, "Ada L", join.DisplayName)

	create := CreateSessionRequest{QuestionSetID: " basic-math ", GameMode: " ", HostDisplayName: "H  1"}
	create.normalize()
	assert.Equal(t, "basic-math", create.QuestionSetID)
	assert.Equal(t, "", create.GameMode)
	assert.Equal(t, "H 1", create.HostDisplayName)
}

func TestReasonFor(t *testing.T) {
	assert.Equal(t, reasonSessionNotFound, reasonFor(ErrSessionNotFound))
	assert.Equal(t, reasonNotHost, reasonFor(ErrNotHost))
	assert.Equal(t, reasonSessionFull, reasonFor(ErrSessionFull))
	assert.Equal(t, reasonInternal, reasonFor(assert.AnError))
}

func TestSubmitAnswerRequiresElapsed(t *testing.T) {
	registerValidators()
	index := 0
	req := SubmitAnswerRequest{Code: "ABCDEF", AnswerIndex: &index}
	err := binding.Validator.ValidateStruct(&req)
	require.Error(t, err)
	assert.Equal(t, "elapsedSeconds is required", resolveBindError(err, gatewayMessages, ""))

	zero := 0.0
	req.ElapsedSeconds = &zero
	assert.NoError(t, binding.Validator.ValidateStruct(&req))
}
