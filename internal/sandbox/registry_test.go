package sandbox

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckoutCheckin(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	id := NewTaskID()

	if err := r.Checkout(id); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if err := r.Checkout(id); err != ErrAlreadyOwner {
		t.Fatalf("checkout twice: got %v, want ErrAlreadyOwner", err)
	}
	if err := r.Checkin(id); err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if err := r.Checkin(id); err != nil {
		t.Fatalf("checkin idempotent: %v", err)
	}
	if _, ok := r.LookupOwner(id); ok {
		t.Fatalf("lookup after checkin: expected not found")
	}
}

func TestAllowAndForceAllow(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	owner1 := NewTaskID()
	owner2 := NewTaskID()
	child := NewTaskID()

	if err := r.Checkout(owner1); err != nil {
		t.Fatalf("checkout owner1: %v", err)
	}
	if err := r.Checkout(owner2); err != nil {
		t.Fatalf("checkout owner2: %v", err)
	}

	if err := r.Allow(owner1, child); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if err := r.Allow(owner1, child); err != ErrAlreadyAllowed {
		t.Fatalf("allow twice: got %v, want ErrAlreadyAllowed", err)
	}
	if err := r.Allow(owner2, child); err != ErrAlreadyAllowed {
		t.Fatalf("allow to different owner: got %v, want ErrAlreadyAllowed", err)
	}

	if err := r.ForceAllow(owner2, child); err != nil {
		t.Fatalf("force_allow: %v", err)
	}
	got, ok := r.LookupOwner(child)
	if !ok || got != owner2 {
		t.Fatalf("lookup after force_allow: got (%v,%v), want (%v,true)", got, ok, owner2)
	}
}

func TestForceAllowDemotesOwner(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	owner := NewTaskID()
	victim := NewTaskID()

	if err := r.Checkout(owner); err != nil {
		t.Fatalf("checkout owner: %v", err)
	}
	if err := r.Checkout(victim); err != nil {
		t.Fatalf("checkout victim: %v", err)
	}
	if err := r.ForceAllow(owner, victim); err != nil {
		t.Fatalf("force_allow: %v", err)
	}
	if _, _, err := r.ResolveContainers(victim); err != nil {
		t.Fatalf("resolve after demotion: %v", err)
	}
	got, ok := r.LookupOwner(victim)
	if !ok || got != owner {
		t.Fatalf("victim not rebound to owner: got (%v,%v)", got, ok)
	}
}

func TestCheckinRemovesAllowances(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	owner := NewTaskID()
	child := NewTaskID()

	if err := r.Checkout(owner); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if err := r.Allow(owner, child); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if err := r.Checkin(owner); err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if _, ok := r.LookupOwner(child); ok {
		t.Fatalf("allowance survived owner checkin")
	}
}

func TestModeAuto(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	id := NewTaskID()

	if err := r.SetMode(Mode{Kind: ModeAuto}); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	buckets, objects, err := r.ResolveContainers(id)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if buckets == nil || objects == nil {
		t.Fatalf("resolve returned nil containers")
	}
	buckets2, _, err := r.ResolveContainers(id)
	if err != nil {
		t.Fatalf("resolve second time: %v", err)
	}
	if buckets2 != buckets {
		t.Fatalf("auto mode allocated a second owner for the same task")
	}
}

func TestModeManualFailsLoudly(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	if err := r.SetMode(Mode{Kind: ModeManual}); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if _, _, err := r.ResolveContainers(NewTaskID()); err != ErrUnavailable {
		t.Fatalf("manual mode resolve: got %v, want ErrUnavailable", err)
	}
}

func TestModeSharedRequiresOwner(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	stranger := NewTaskID()
	if err := r.SetMode(Mode{Kind: ModeShared, SharedOwner: stranger}); err != ErrNotFound {
		t.Fatalf("shared mode for unknown pid: got %v, want ErrNotFound", err)
	}

	owner := NewTaskID()
	if err := r.Checkout(owner); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if err := r.SetMode(Mode{Kind: ModeShared, SharedOwner: owner}); err != nil {
		t.Fatalf("set shared: %v", err)
	}
	if err := r.SetMode(Mode{Kind: ModeShared, SharedOwner: owner}); err != ErrAlreadyShared {
		t.Fatalf("set shared twice: got %v, want ErrAlreadyShared", err)
	}
}

func TestDistinctOwnersDoNotShareContainers(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	a := NewTaskID()
	b := NewTaskID()
	if err := r.Checkout(a); err != nil {
		t.Fatalf("checkout a: %v", err)
	}
	if err := r.Checkout(b); err != nil {
		t.Fatalf("checkout b: %v", err)
	}
	bucketsA, _, _ := r.ResolveContainers(a)
	bucketsB, _, _ := r.ResolveContainers(b)
	bucketsA.PutIfAbsent("owner-a-bucket", BucketRecord{})
	if _, ok := bucketsB.Get("owner-a-bucket"); ok {
		t.Fatalf("owner B observed owner A's bucket")
	}
}

func TestStartOwnerAndStopOwner(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	id, err := r.StartOwner(StartOwnerOptions{Shared: true})
	if err != nil {
		t.Fatalf("start_owner: %v", err)
	}
	if !r.Enabled() {
		t.Fatalf("expected sandbox enabled after shared start_owner")
	}
	if _, _, err := r.ResolveContainers(NewTaskID()); err != nil {
		t.Fatalf("resolve under shared mode: %v", err)
	}

	if err := r.StopOwner(id); err != nil {
		t.Fatalf("stop_owner: %v", err)
	}
	if err := r.StopOwner(id); err != nil {
		t.Fatalf("stop_owner idempotent: %v", err)
	}
	if _, ok := r.LookupOwner(id); ok {
		t.Fatalf("owner still registered after stop_owner")
	}
}

func TestEncodeDecodeMetadataRoundTrip(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	id := NewTaskID()
	encoded := r.EncodeMetadata(id)
	decoded, err := r.DecodeMetadata(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != id {
		t.Fatalf("round trip mismatch: got %v, want %v", decoded, id)
	}
	if _, err := r.DecodeMetadata("not valid base64!!"); err == nil {
		t.Fatalf("expected error decoding garbage")
	}
}

func TestInterceptRebindsAcrossOwners(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	owner1 := NewTaskID()
	owner2 := NewTaskID()
	if err := r.Checkout(owner1); err != nil {
		t.Fatalf("checkout owner1: %v", err)
	}
	if err := r.Checkout(owner2); err != nil {
		t.Fatalf("checkout owner2: %v", err)
	}

	req1 := httptest.NewRequest(http.MethodGet, "/", nil)
	req1.RemoteAddr = "10.0.0.1:5555"
	req1.Header.Set(OwnerHeader, r.EncodeMetadata(owner1))
	req1 = Intercept(r, req1)
	if got := TaskFromContext(req1.Context()); got == (TaskID{}) {
		t.Fatalf("expected bound task in context")
	}
	boundOwner, ok := r.LookupOwner(TaskFromContext(req1.Context()))
	if !ok || boundOwner != owner1 {
		t.Fatalf("first bind: got (%v,%v), want (%v,true)", boundOwner, ok, owner1)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.RemoteAddr = "10.0.0.1:5555"
	req2.Header.Set(OwnerHeader, r.EncodeMetadata(owner2))
	req2 = Intercept(r, req2)
	boundOwner2, ok := r.LookupOwner(TaskFromContext(req2.Context()))
	if !ok || boundOwner2 != owner2 {
		t.Fatalf("rebind: got (%v,%v), want (%v,true)", boundOwner2, ok, owner2)
	}
}

func TestInterceptIgnoresBadHeader(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(OwnerHeader, "garbage")
	out := Intercept(r, req)
	if out != req {
		t.Fatalf("expected request to pass through unchanged on decode failure")
	}
}
