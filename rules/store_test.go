package rules

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// ResultStoreSuite runs the ResultStore contract against an implementation
type ResultStoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) ResultStore
	store    ResultStore
}

func TestInMemoryResultStoreSuite(t *testing.T) {
	suite.Run(t, &ResultStoreSuite{
		newStore: func(*testing.T) ResultStore { return NewInMemoryResultStore() },
	})
}

func (s *ResultStoreSuite) SetupTest() {
	s.store = s.newStore(s.T())
}

func newTestResult(regNo, date string) Result {
	r := result("NOME-B", ClassALO, "ALO1", date)
	r.ID = uuid.NewString()
	r.RegNo = regNo
	return r
}

// TestAddAndList verifies results are listed per dog in date order and marked official
func (s *ResultStoreSuite) TestAddAndList() {
	ctx := context.Background()
	regNo := "FI" + uuid.NewString()[:8] + "/20"

	late := newTestResult(regNo, "2021-06-01")
	early := newTestResult(regNo, "2020-06-01")
	early.Cert = true
	s.Require().NoError(s.store.Add(ctx, late))
	s.Require().NoError(s.store.Add(ctx, early))
	s.Require().NoError(s.store.Add(ctx, newTestResult("FI1/99", "2020-01-01")))

	results, err := s.store.ListByDog(ctx, regNo)
	s.Require().NoError(err)
	s.Require().Len(results, 2)

	s.Equal(early.ID, results[0].ID)
	s.Equal(late.ID, results[1].ID)
	s.True(results[0].Official)
	s.True(results[0].Cert)
	s.True(results[0].Date.Equal(early.Date))
	s.Equal(early.Location, results[0].Location)
	s.Equal(early.Judge, results[0].Judge)
	s.Equal(ClassALO, results[0].Class)
}

// TestListUnknownDog verifies an unknown dog has no results
func (s *ResultStoreSuite) TestListUnknownDog() {
	results, err := s.store.ListByDog(context.Background(), "FI0/00")
	s.Require().NoError(err)
	s.Empty(results)
}

// TestDuplicateID verifies a result id can be added once per dog
func (s *ResultStoreSuite) TestDuplicateID() {
	ctx := context.Background()
	r := newTestResult("FI2/20", "2020-06-01")

	s.Require().NoError(s.store.Add(ctx, r))
	err := s.store.Add(ctx, r)
	s.Require().Error(err)
	s.ErrorIs(err, ErrResultExists)

	// the same id for another dog is fine
	r.RegNo = "FI3/20"
	s.NoError(s.store.Add(ctx, r))
}

// TestDelete verifies deleting removes the result and unknown ids are reported
func (s *ResultStoreSuite) TestDelete() {
	ctx := context.Background()
	r := newTestResult("FI4/20", "2020-06-01")
	s.Require().NoError(s.store.Add(ctx, r))

	s.Require().NoError(s.store.Delete(ctx, r.RegNo, r.ID))

	results, err := s.store.ListByDog(ctx, r.RegNo)
	s.Require().NoError(err)
	s.Empty(results)

	s.ErrorIs(s.store.Delete(ctx, r.RegNo, r.ID), ErrResultNotFound)
}

// TestConcurrentAccess verifies the store handles concurrent writers
func (s *ResultStoreSuite) TestConcurrentAccess() {
	ctx := context.Background()
	regNo := "FI5/20"
	const writers = 20

	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.store.Add(ctx, newTestResult(regNo, "2020-06-01")))
		}()
	}
	wg.Wait()

	results, err := s.store.ListByDog(ctx, regNo)
	s.Require().NoError(err)
	s.Len(results, writers)
}

// TestInMemoryResultStore_ReturnsCopies verifies callers cannot modify stored results
func TestInMemoryResultStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryResultStore()
	if err := store.Add(ctx, newTestResult("FI6/20", "2020-06-01")); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	results, _ := store.ListByDog(ctx, "FI6/20")
	results[0].Result = "ALO3"

	again, _ := store.ListByDog(ctx, "FI6/20")
	if again[0].Result != "ALO1" {
		t.Errorf("stored result modified through a listed copy: %q", again[0].Result)
	}
}
