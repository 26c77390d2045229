package llm

import (
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
)

// classifyGenerationError maps OpenAI API failures onto domain error
// kinds. Quota exhaustion is checked before the generic 429 case
// because OpenAI reports it with the same status code.
func classifyGenerationError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	if isQuotaExhausted(apiErr) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeGenerationQuotaExhausted, "model provider quota exhausted", err)
	}
	if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return domain.NewDomainErrorWithCause(domain.ErrCodeGenerationRateLimited, "model provider rate limit exceeded", err)
	}
	return err
}

func isQuotaExhausted(apiErr *openai.APIError) bool {
	if strings.Contains(apiErr.Type, "insufficient_quota") {
		return true
	}
	code, ok := apiErr.Code.(string)
	return ok && strings.Contains(code, "insufficient_quota")
}
