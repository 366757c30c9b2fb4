package probes

import (
	"context"
	"testing"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/duties"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

type fakeRewardsSource struct {
	resp     *models.RewardsResponse
	gotEpoch models.Epoch
	gotIdx   []models.ValidatorIndex
}

func (f *fakeRewardsSource) GetRewards(ctx context.Context, epoch models.Epoch, indices []models.ValidatorIndex) (*models.RewardsResponse, error) {
	f.gotEpoch = epoch
	f.gotIdx = indices
	return f.resp, nil
}

func newTestRewardsResponse() *models.RewardsResponse {
	resp := &models.RewardsResponse{}
	resp.Data.IdealRewards = []models.IdealReward{
		{EffectiveBalance: 32_000_000_000, Head: 100, Target: 200, Source: 300},
	}
	resp.Data.TotalRewards = []models.TotalReward{
		{ValidatorIndex: 42, Head: 100, Target: 200, Source: 300},
		{ValidatorIndex: 43, Head: 50, Target: 200, Source: 300},
	}
	return resp
}

func TestRewardsBeforeEpochTwoIsZeroValue(t *testing.T) {
	src := &fakeRewardsSource{resp: newTestRewardsResponse()}
	got, err := Rewards(context.Background(), src, 1, []models.ValidatorIndex{42}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.PerValidator) != 0 {
		t.Errorf("expected zero-value summary before epoch 2, got %+v", got)
	}
}

func TestRewardsFetchesEpochMinusTwo(t *testing.T) {
	src := &fakeRewardsSource{resp: newTestRewardsResponse()}
	balances := map[models.ValidatorIndex]models.Gwei{42: 32_000_000_000, 43: 32_000_000_000}

	summary, err := Rewards(context.Background(), src, 10, []models.ValidatorIndex{42, 43}, balances)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.gotEpoch != 8 {
		t.Errorf("expected GetRewards called with epoch-2=8, got %d", src.gotEpoch)
	}
	if len(summary.PerValidator) != 2 {
		t.Fatalf("expected two validators classified, got %+v", summary.PerValidator)
	}
	if summary.SuboptimalHeadCount != 1 {
		t.Errorf("expected exactly one suboptimal head vote (index 43), got %d", summary.SuboptimalHeadCount)
	}
	if summary.IdealTotal != 1200 {
		t.Errorf("expected ideal total 600*2=1200, got %d", summary.IdealTotal)
	}
	if summary.ActualTotal != 1150 {
		t.Errorf("expected actual total 600+550=1150, got %d", summary.ActualTotal)
	}
}

func TestRewardsSuboptimalRate(t *testing.T) {
	summary := RewardsSummary{
		PerValidator: map[models.ValidatorIndex]duties.RewardData{
			42: {}, 43: {}, 44: {},
		},
	}
	if got := summary.SuboptimalRate(1); got != 1.0/3.0 {
		t.Errorf("expected rate 1/3, got %v", got)
	}
	if got := (RewardsSummary{}).SuboptimalRate(0); got != 0 {
		t.Errorf("expected rate 0 for empty summary, got %v", got)
	}
}
