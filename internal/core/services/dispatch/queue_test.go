package dispatch

import (
	"errors"
	"testing"

	"gitlab.com/gpugate.net/internal/domain"
	"gitlab.com/gpugate.net/internal/static/errs"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := newAdmissionQueue(3)

	a := domain.NewJob([]byte(`{"n":1}`))
	b := domain.NewJob([]byte(`{"n":2}`))
	c := domain.NewJob([]byte(`{"n":3}`))

	for _, j := range []*domain.Job{a, b, c} {
		if err := q.push(j); err != nil {
			t.Fatalf("push failed: %v", err)
		}
	}

	if got := q.pop(); got.ID != a.ID {
		t.Errorf("expected %s first, got %s", a.ID, got.ID)
	}
	if got := q.pop(); got.ID != b.ID {
		t.Errorf("expected %s second, got %s", b.ID, got.ID)
	}
	if got := q.pop(); got.ID != c.ID {
		t.Errorf("expected %s last, got %s", c.ID, got.ID)
	}
	if q.pop() != nil {
		t.Error("expected nil pop on empty queue")
	}
}

func TestQueueBound(t *testing.T) {
	q := newAdmissionQueue(2)

	if err := q.push(domain.NewJob(nil)); err != nil {
		t.Fatalf("push 1 failed: %v", err)
	}
	if err := q.push(domain.NewJob(nil)); err != nil {
		t.Fatalf("push 2 failed: %v", err)
	}

	err := q.push(domain.NewJob(nil))
	if !errors.Is(err, errs.QueueFull) {
		t.Fatalf("expected QueueFull, got %v", err)
	}
	if q.size() != 2 {
		t.Errorf("queue exceeded its bound: size %d", q.size())
	}
}

func TestQueueRemovePreservesOrder(t *testing.T) {
	q := newAdmissionQueue(4)

	a := domain.NewJob(nil)
	b := domain.NewJob(nil)
	c := domain.NewJob(nil)
	q.push(a)
	q.push(b)
	q.push(c)

	if !q.remove(b.ID) {
		t.Fatal("expected remove to find the job")
	}
	if q.remove(b.ID) {
		t.Error("expected second remove to fail")
	}

	if got := q.pop(); got.ID != a.ID {
		t.Errorf("expected %s first after remove, got %s", a.ID, got.ID)
	}
	if got := q.pop(); got.ID != c.ID {
		t.Errorf("expected %s second after remove, got %s", c.ID, got.ID)
	}
}

func TestQueuePeekDoesNotRemove(t *testing.T) {
	q := newAdmissionQueue(1)

	if q.peek() != nil {
		t.Error("expected nil peek on empty queue")
	}

	a := domain.NewJob(nil)
	q.push(a)
	if got := q.peek(); got.ID != a.ID {
		t.Errorf("expected %s, got %s", a.ID, got.ID)
	}
	if q.size() != 1 {
		t.Error("peek must not remove the head")
	}
}
