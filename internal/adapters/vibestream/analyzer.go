package vibestream

import (
	"context"

	"github.com/okian/wildwatch/internal/domain/detection"
)

var _ detection.Analyzer = (*Client)(nil)

// Analyze runs CheckOnce with the frame included.
func (c *Client) Analyze(ctx context.Context, req detection.AnalyzeRequest) (detection.Analysis, error) {
	resp, err := c.CheckOnce(ctx, CheckOnceRequest{
		YouTubeURL: req.SourceURL,
		Condition:  req.Condition,
		Model:      req.Model,
	})
	if err != nil {
		return detection.Analysis{}, err
	}
	return detection.Analysis{
		Triggered:   resp.Triggered,
		Explanation: resp.Explanation,
		Model:       resp.Model,
		Frame:       resp.Frame(),
	}, nil
}
