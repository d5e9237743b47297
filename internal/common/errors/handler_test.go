package errors

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

// recordingGateway captures the fail and throw requests sent for a job.
type recordingGateway struct {
	pb.GatewayClient
	failed []*pb.FailJobRequest
	thrown []*pb.ThrowErrorRequest
}

func (g *recordingGateway) FailJob(_ context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.failed = append(g.failed, in)
	return &pb.FailJobResponse{}, nil
}

func (g *recordingGateway) ThrowError(_ context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.thrown = append(g.thrown, in)
	return &pb.ThrowErrorResponse{}, nil
}

func noRetry(context.Context, error) bool { return false }

type fakeJobClient struct {
	gateway *recordingGateway
}

func (c fakeJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.gateway, noRetry)
}

func (c fakeJobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.gateway, noRetry)
}

func (c fakeJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gateway, noRetry)
}

type discardLogger struct{}

func (discardLogger) Error(string, map[string]interface{}) {}

func newJob(retries int32) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: "assistant-handle-turn", Retries: retries}}
}

func TestHandleJobError_RetryBudgetCountsDown(t *testing.T) {
	gateway := &recordingGateway{}
	client := fakeJobClient{gateway: gateway}
	h := NewErrorHandler(discardLogger{})

	job := newJob(3)
	var sent []int32
	for attempt := 0; attempt < 5 && job.Retries > 0; attempt++ {
		h.HandleJobError(context.Background(), client, job, NewSessionStoreFailedError("get", stderrors.New("connection refused")))
		require.Len(t, gateway.failed, len(sent)+1)
		next := gateway.failed[len(gateway.failed)-1].Retries
		sent = append(sent, next)
		job = newJob(next)
	}

	assert.Equal(t, []int32{2, 1, 0}, sent)
	assert.Empty(t, gateway.thrown)
}

func TestHandleJobError(t *testing.T) {
	tests := []struct {
		name        string
		retries     int32
		err         error
		wantFailed  bool
		wantRetries int32
		wantCode    string
	}{
		{"retry count caps a large budget", 10, NewQueryExecutionFailedError("items", stderrors.New("reset")), true, 3, ""},
		{"timeout cap", 5, NewSearchTimeoutError("trade_items"), true, 2, ""},
		{"last retry raises incident", 1, NewSessionStoreFailedError("set", stderrors.New("down")), true, 0, ""},
		{"exhausted budget throws", 0, NewSessionStoreFailedError("set", stderrors.New("down")), false, 0, "SESSION_STORE_FAILED"},
		{"non-retryable throws", 3, NewInvalidInputError("utterance missing"), false, 0, "INVALID_INPUT"},
		{"unknown error throws internal", 3, stderrors.New("boom"), false, 0, string(ErrCodeInternal)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &recordingGateway{}
			NewErrorHandler(discardLogger{}).HandleJobError(context.Background(), fakeJobClient{gateway: gateway}, newJob(tt.retries), tt.err)

			if tt.wantFailed {
				require.Len(t, gateway.failed, 1)
				assert.Empty(t, gateway.thrown)
				assert.Equal(t, int64(42), gateway.failed[0].JobKey)
				assert.Equal(t, tt.wantRetries, gateway.failed[0].Retries)
				return
			}
			require.Len(t, gateway.thrown, 1)
			assert.Empty(t, gateway.failed)
			assert.Equal(t, tt.wantCode, gateway.thrown[0].ErrorCode)
		})
	}
}
