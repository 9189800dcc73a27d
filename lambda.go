// lambda.go
package cosmorm

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/pay-theory/cosmorm/pkg/core"
	"github.com/pay-theory/cosmorm/pkg/session"
)

// EnvConfigPath names an optional YAML session config used by NewLambdaContainer
const EnvConfigPath = "COSMORM_CONFIG"

// lambdaCleanupBuffer is reserved at the end of an invocation for the handler to finish
const lambdaCleanupBuffer = time.Second

var (
	// Global container reused across warm invocations
	globalLambdaContainer core.Container
	globalLambdaErr       error
	lambdaOnce            sync.Once

	// openContainer is a variable to allow swapping session creation in tests
	openContainer = func(cfg *session.Config) (core.Container, error) {
		sess, err := session.NewSession(cfg)
		if err != nil {
			return nil, err
		}
		return sess.Container(), nil
	}
)

// NewLambdaContainer returns a container configured from the environment
// (and COSMORM_CONFIG when set). The first call builds it; later calls in the
// same execution environment reuse it.
func NewLambdaContainer() (core.Container, error) {
	lambdaOnce.Do(func() {
		cfg, err := session.LoadConfig(os.Getenv(EnvConfigPath))
		if err != nil {
			globalLambdaErr = err
			return
		}
		globalLambdaContainer, globalLambdaErr = openContainer(cfg)
	})
	return globalLambdaContainer, globalLambdaErr
}

// WithLambdaTimeout returns a copy of the repository that refuses to start
// requests within the final second of the invocation deadline carried by ctx.
func (r *Repository[T]) WithLambdaTimeout(ctx context.Context) *Repository[T] {
	deadline, ok := ctx.Deadline()
	if !ok {
		return r
	}

	clone := *r
	clone.lambdaDeadline = deadline.Add(-lambdaCleanupBuffer)
	return &clone
}

// RequestID returns the AWS request id of the invocation carried by ctx, if any
func RequestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	return ""
}

// Lambda environment helper functions

// IsLambdaEnvironment detects if running in AWS Lambda
func IsLambdaEnvironment() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// GetLambdaMemoryMB returns the allocated memory in MB
func GetLambdaMemoryMB() int {
	memStr := os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE")
	if memStr == "" {
		return 0
	}

	mem, err := strconv.Atoi(memStr)
	if err != nil {
		return 0
	}

	return mem
}

// GetRemainingTimeMillis returns milliseconds until the context deadline, or -1 without one
func GetRemainingTimeMillis(ctx context.Context) int64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return -1
	}

	remaining := time.Until(deadline)
	return remaining.Milliseconds()
}
