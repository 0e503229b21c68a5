package agent

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Classify maps an arbitrary failure to a single AgentError. It never
// panics; an unrecognized failure yields a PROCESSING_ERROR. A failure
// that is already an AgentError passes through unchanged.
func Classify(err error) *model.AgentError {
	if err == nil {
		return nil
	}

	// Already classified: keep the original code and details
	var agentErr *model.AgentError
	if errors.As(err, &agentErr) {
		return agentErr
	}

	code := classifyCode(err)
	return model.NewAgentError(code, err.Error(), err, detailsOf(err))
}

func classifyCode(err error) model.ErrorCode {
	switch {
	case goerr.HasTag(err, model.ErrTagValidation):
		return model.ErrCodeValidation
	case goerr.HasTag(err, model.ErrTagExternalService):
		return model.ErrCodeExternalService
	case goerr.HasTag(err, model.ErrTagConfiguration):
		return model.ErrCodeConfiguration
	case goerr.HasTag(err, model.ErrTagProcessing):
		return model.ErrCodeProcessing
	}

	// Upstream API failures: server-side status codes and throttling
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code >= 500 || apiErr.Code == 429 {
			return model.ErrCodeExternalService
		}
		return model.ErrCodeProcessing
	}

	// Network-level failures
	var netErr net.Error
	switch {
	case errors.As(err, &netErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, context.DeadlineExceeded):
		return model.ErrCodeExternalService
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return model.ErrCodeExternalService
	}

	if strings.Contains(strings.ToLower(err.Error()), "missing configuration") {
		return model.ErrCodeConfiguration
	}

	return model.ErrCodeProcessing
}

// detailsOf lifts goerr key-value pairs into AgentError details so the
// caller does not need to unwrap the cause chain.
func detailsOf(err error) map[string]any {
	goErr := goerr.Unwrap(err)
	if goErr == nil {
		return nil
	}

	values := goErr.Values()
	if len(values) == 0 {
		return nil
	}
	return values
}
