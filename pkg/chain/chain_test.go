package chain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/gantry/pkg/chain"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(log *[]string, name string, err error) chain.StepFunc {
	return func(context.Context) error {
		*log = append(*log, name)
		return err
	}
}

func TestChain_RunsInOrder(t *testing.T) {
	var log []string
	err := chain.New("install").
		Then("npm", record(&log, "npm", nil)).
		Then("bower", record(&log, "bower", nil)).
		Then("webdriver", record(&log, "webdriver", nil)).
		Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"npm", "bower", "webdriver"}, log)
}

func TestChain_ShortCircuits(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	err := chain.New("install").
		Then("npm", record(&log, "npm", nil)).
		Then("bower", record(&log, "bower", boom)).
		Then("webdriver", record(&log, "webdriver", nil)).
		Run(context.Background())

	assert.Equal(t, []string{"npm", "bower"}, log)
	require.ErrorIs(t, err, boom)

	var failure *domain.ChainFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "install", failure.Chain)
	assert.Equal(t, "bower", failure.Step)
	assert.Equal(t, 1, failure.Index)
}

func TestChain_FinalizerRunsExactlyOnce(t *testing.T) {
	for failing := 0; failing <= 3; failing++ {
		t.Run(fmt.Sprintf("%d failing steps", failing), func(t *testing.T) {
			finalized := 0
			c := chain.New("c").Always(func(context.Context) error {
				finalized++
				return nil
			})
			for i := 0; i < 3; i++ {
				var err error
				if i < failing {
					err = fmt.Errorf("step %d", i)
				}
				c.Then(fmt.Sprintf("s%d", i), func(context.Context) error { return err })
			}

			err := c.Run(context.Background())
			assert.Equal(t, 1, finalized)
			if failing == 0 {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, `c: step "s0" failed: step 0`, "first failure wins")
			}
		})
	}
}

func TestChain_FinalizerSeesSettledSteps(t *testing.T) {
	var log []string
	err := chain.New("c").
		Then("a", record(&log, "a", nil)).
		Always(func(context.Context) error {
			log = append(log, "finally")
			return nil
		}).
		Then("b", record(&log, "b", nil)).
		Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "finally"}, log)
}

func TestChain_Recovery(t *testing.T) {
	boom := errors.New("boom")

	t.Run("Swallows Failure", func(t *testing.T) {
		var got error
		err := chain.New("c").
			Then("a", record(new([]string), "a", boom)).
			OnFailure(func(_ context.Context, err error) error {
				got = err
				return nil
			}).
			Run(context.Background())

		require.NoError(t, err)
		assert.ErrorIs(t, got, boom)
	})

	t.Run("Replaces Failure", func(t *testing.T) {
		replaced := errors.New("replaced")
		err := chain.New("c").
			Then("a", record(new([]string), "a", boom)).
			OnFailure(func(context.Context, error) error { return replaced }).
			Run(context.Background())

		assert.ErrorIs(t, err, replaced)
		assert.NotErrorIs(t, err, boom)
	})

	t.Run("Not Called On Success", func(t *testing.T) {
		called := false
		err := chain.New("c").
			Then("a", record(new([]string), "a", nil)).
			OnFailure(func(context.Context, error) error {
				called = true
				return nil
			}).
			Run(context.Background())

		require.NoError(t, err)
		assert.False(t, called)
	})
}

func TestChain_FinalizerError(t *testing.T) {
	cleanup := errors.New("cleanup")

	t.Run("Fails Successful Chain", func(t *testing.T) {
		err := chain.New("c").
			Then("a", record(new([]string), "a", nil)).
			Always(func(context.Context) error { return cleanup }).
			Run(context.Background())
		assert.ErrorIs(t, err, cleanup)
	})

	t.Run("Joined With Step Failure", func(t *testing.T) {
		boom := errors.New("boom")
		err := chain.New("c").
			Then("a", record(new([]string), "a", boom)).
			Always(func(context.Context) error { return cleanup }).
			Run(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, err, cleanup)
	})
}

func TestChain_Panic(t *testing.T) {
	finalized := false
	var log []string
	err := chain.New("c").
		Then("a", func(context.Context) error { panic("kaboom") }).
		Then("b", record(&log, "b", nil)).
		Always(func(context.Context) error {
			finalized = true
			return nil
		}).
		Run(context.Background())

	var failure *domain.ChainFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "a", failure.Step)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Empty(t, log)
	assert.True(t, finalized)
}

func TestChain_When(t *testing.T) {
	var log []string
	skip := true
	err := chain.New("c").
		Then("a", record(&log, "a", nil)).
		When(func() bool { return !skip }, "b", record(&log, "b", nil)).
		Then("c", record(&log, "c", nil)).
		Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, log)
}

func TestChainFailure_NoReason(t *testing.T) {
	err := &domain.ChainFailure{Step: "a"}
	assert.ErrorIs(t, err, domain.ErrOperationFailed)
	assert.Equal(t, `step "a" failed: operation failed`, err.Error())
}

func TestChain_Go(t *testing.T) {
	release := make(chan struct{})
	f := chain.New("c").
		Then("wait", func(ctx context.Context) error {
			<-release
			return nil
		}).
		Go(context.Background())

	select {
	case <-f.Done():
		t.Fatal("chain settled before its step finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.NoError(t, f.Wait())
	<-f.Done()
}
