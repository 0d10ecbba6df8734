package tracking

import (
	"context"
	"testing"

	"interview-coach/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_DispatchWithoutFeeds(t *testing.T) {
	src := NewStream("u")

	assert.True(t, src.Dispatch(Message{Type: MessageGaze, X: 1, Y: 2}))
	assert.True(t, src.Dispatch(Message{Type: MessagePose}))
	assert.False(t, src.Dispatch(Message{Type: MessageFinish}))
}

func TestStream_DeliversToAttachedFeeds(t *testing.T) {
	src := NewStream("u")
	var gotGaze models.GazeSample
	var gotPose models.PoseSample

	require.NoError(t, src.Gaze().Begin(context.Background(), src, func(s models.GazeSample) { gotGaze = s }))
	require.NoError(t, src.Pose().Begin(context.Background(), src, func(p models.PoseSample) { gotPose = p }))

	src.Dispatch(Message{Type: MessageGaze, X: 3, Y: 4, Timestamp: 99})
	src.Dispatch(Message{Type: MessagePose, Landmarks: []models.Landmark{{X: 0.1, Y: 0.2}}})

	assert.Equal(t, models.GazeSample{X: 3, Y: 4, Timestamp: 99}, gotGaze)
	assert.Len(t, gotPose, 1)

	require.NoError(t, src.Gaze().End())
	src.Dispatch(Message{Type: MessageGaze, X: 10})
	assert.Equal(t, 3.0, gotGaze.X)
}

func TestStream_FeedRejectsSecondAttachAndForeignSource(t *testing.T) {
	src := NewStream("u")
	other := NewStream("v")
	noop := func(models.GazeSample) {}

	require.NoError(t, src.Gaze().Begin(context.Background(), src, noop))
	assert.ErrorIs(t, src.Gaze().Begin(context.Background(), src, noop), ErrFeedBusy)
	assert.ErrorIs(t, src.Pose().Begin(context.Background(), other, func(models.PoseSample) {}), ErrForeignSource)
}
