package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-screener/domain"
)

func quietLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    domain.Verdict
		wantErr bool
	}{
		{
			name: "plain json",
			raw:  `{"score": 82, "status": "Pass", "candidateName": "Ada Lovelace", "summary": "Strong match."}`,
			want: domain.Verdict{Score: 82, Status: domain.ScanPass, CandidateName: "Ada Lovelace", Summary: "Strong match."},
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"score\": 40, \"status\": \"Fail\", \"candidateName\": \"Bob\", \"summary\": \"Gaps.\"}\n```",
			want: domain.Verdict{Score: 40, Status: domain.ScanFail, CandidateName: "Bob", Summary: "Gaps."},
		},
		{
			name: "status follows threshold",
			raw:  `{"score": 45, "status": "Pass", "candidateName": "Eve", "summary": "Generous model."}`,
			want: domain.Verdict{Score: 45, Status: domain.ScanFail, CandidateName: "Eve", Summary: "Generous model."},
		},
		{
			name: "threshold boundary passes",
			raw:  `{"score": 60, "status": "Fail", "candidateName": "Sam", "summary": "Borderline."}`,
			want: domain.Verdict{Score: 60, Status: domain.ScanPass, CandidateName: "Sam", Summary: "Borderline."},
		},
		{
			name: "fraction rounded",
			raw:  `{"score": 59.6, "status": "Pass", "candidateName": "Kim", "summary": "Close."}`,
			want: domain.Verdict{Score: 60, Status: domain.ScanPass, CandidateName: "Kim", Summary: "Close."},
		},
		{
			name: "blank name becomes unknown",
			raw:  `{"score": 10, "status": "Fail", "candidateName": "  ", "summary": "No name."}`,
			want: domain.Verdict{Score: 10, Status: domain.ScanFail, CandidateName: domain.UnknownCandidate, Summary: "No name."},
		},
		{name: "trailing prose", raw: `{"score": 70, "status": "Pass", "candidateName": "A", "summary": "B"} Hope this helps!`, wantErr: true},
		{name: "missing score", raw: `{"status": "Pass", "candidateName": "A", "summary": "B"}`, wantErr: true},
		{name: "missing summary", raw: `{"score": 70, "status": "Pass", "candidateName": "A"}`, wantErr: true},
		{name: "score too high", raw: `{"score": 101, "status": "Pass", "candidateName": "A", "summary": "B"}`, wantErr: true},
		{name: "negative score", raw: `{"score": -1, "status": "Fail", "candidateName": "A", "summary": "B"}`, wantErr: true},
		{name: "score as string", raw: `{"score": "70", "status": "Pass", "candidateName": "A", "summary": "B"}`, wantErr: true},
		{name: "unknown status", raw: `{"score": 70, "status": "Maybe", "candidateName": "A", "summary": "B"}`, wantErr: true},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "not json", raw: "I cannot evaluate this resume.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVerdict(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPromptCarriesContract(t *testing.T) {
	prompt := BuildPrompt("Senior React Developer", "5+ years React, TypeScript, AWS", "3 years React, no AWS", 50)

	assert.Contains(t, prompt, "Senior React Developer")
	assert.Contains(t, prompt, "5+ years React, TypeScript, AWS")
	assert.Contains(t, prompt, "3 years React, no AWS")
	assert.Contains(t, prompt, "Scoring mode: balanced")
	assert.Contains(t, prompt, `"candidateName"`)
	assert.Contains(t, prompt, "Pass threshold: score >= 60")
	assert.Contains(t, prompt, `status must be "Fail"`)

	assert.Contains(t, BuildPrompt("t", "d", "r", 90), "Scoring mode: ruthless")
}

func TestScorePassesTemperatureAndKey(t *testing.T) {
	gen := &stubGenerator{needsKey: true, reply: `{"score": 75, "status": "Pass", "candidateName": "Ada", "summary": "Good."}`}
	engine := NewScoringEngine(gen, "default-key", time.Second, quietLogger())

	verdict, err := engine.Score(context.Background(), ScoreRequest{
		ResumeText: "resume", JobTitle: "Engineer", JobDescription: "Go", Strictness: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, 75, verdict.Score)
	assert.Equal(t, domain.ScanPass, verdict.Status)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "default-key", gen.lastReq.APIKey)
	assert.InDelta(t, 0.0, gen.lastReq.Temperature, 1e-9)
	assert.Contains(t, gen.lastReq.Prompt, "Scoring mode: ruthless")
}

func TestScoreRequestKeyOverridesDefault(t *testing.T) {
	gen := &stubGenerator{needsKey: true, reply: `{"score": 10, "status": "Fail", "candidateName": "A", "summary": "B"}`}
	engine := NewScoringEngine(gen, "default-key", time.Second, quietLogger())

	_, err := engine.Score(context.Background(), ScoreRequest{APIKey: "byok", Strictness: 0})
	require.NoError(t, err)
	assert.Equal(t, "byok", gen.lastReq.APIKey)
	assert.InDelta(t, 0.5, gen.lastReq.Temperature, 1e-9)
}

func TestScoreWithoutAnyKeyIsConfigurationError(t *testing.T) {
	gen := &stubGenerator{needsKey: true}
	engine := NewScoringEngine(gen, "", time.Second, quietLogger())

	_, err := engine.Score(context.Background(), ScoreRequest{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Zero(t, gen.calls)
}

func TestScoreAmbientProviderNeedsNoKey(t *testing.T) {
	gen := &stubGenerator{needsKey: false, reply: `{"score": 61, "status": "Pass", "candidateName": "A", "summary": "B"}`}
	engine := NewScoringEngine(gen, "", time.Second, quietLogger())

	verdict, err := engine.Score(context.Background(), ScoreRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.ScanPass, verdict.Status)
}

func TestScoreMalformedReplyFallsBack(t *testing.T) {
	gen := &stubGenerator{needsKey: true, reply: "Sure! Here is my analysis: the candidate is great."}
	engine := NewScoringEngine(gen, "k", time.Second, quietLogger())

	verdict, err := engine.Score(context.Background(), ScoreRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.FallbackVerdict(), verdict)
}

func TestScoreTransportFailureIsUpstreamError(t *testing.T) {
	gen := &stubGenerator{needsKey: true, err: errors.New("401 invalid api key")}
	engine := NewScoringEngine(gen, "k", time.Second, quietLogger())

	_, err := engine.Score(context.Background(), ScoreRequest{})
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "stub", upstream.Provider)
	assert.Equal(t, 1, gen.calls, "no retries")
}

func TestScoreTimeoutIsUpstreamError(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	gen := &stubGenerator{needsKey: true, blockTill: block}
	engine := NewScoringEngine(gen, "k", 20*time.Millisecond, quietLogger())

	_, err := engine.Score(context.Background(), ScoreRequest{})
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
