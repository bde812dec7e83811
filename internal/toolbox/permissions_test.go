package toolbox

import "testing"

func descriptors(names ...string) []Descriptor {
	out := make([]Descriptor, len(names))
	for i, n := range names {
		out[i] = Descriptor{Name: n}
	}
	return out
}

func names(ds []Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name
	}
	return out
}

func TestResolve_BlockListAlwaysWins(t *testing.T) {
	all := descriptors("mail_read", "mail_send", "claims_query")

	cases := []struct {
		name  string
		allow map[string][]string
	}{
		{"no allow-list", nil},
		{"empty allow-list", map[string][]string{"general": {}}},
		{"allow-list includes blocked", map[string][]string{"general": {"mail_read", "mail_send"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := NewFilter(tc.allow, []string{"mail_send"})
			for _, d := range f.Resolve("general", all) {
				if d.Name == "mail_send" {
					t.Error("blocked tool leaked through filter")
				}
			}
		})
	}
}

func TestResolve_AllowListNarrows(t *testing.T) {
	all := descriptors("mail_read", "claims_query", "web_search")
	f := NewFilter(map[string][]string{"triage_worker": {"mail_read"}}, nil)

	got := f.Resolve("triage_worker", all)
	if len(got) != 1 || got[0].Name != "mail_read" {
		t.Errorf("unexpected resolution: %v", names(got))
	}
}

func TestResolve_RoleWithoutAllowListGetsEverythingUnblocked(t *testing.T) {
	all := descriptors("a", "b", "c")
	f := NewFilter(map[string][]string{"triage_worker": {"a"}}, []string{"c"})

	got := f.Resolve("general", all)
	if len(got) != 2 {
		t.Errorf("expected 2 tools, got %v", names(got))
	}
}

func TestResolve_EmptyIntersectionFailsOpen(t *testing.T) {
	all := descriptors("mail_read", "claims_query")
	// Allow-list names only a blocked tool, so the intersection is empty.
	f := NewFilter(map[string][]string{"triage_worker": {"mail_send"}}, []string{"mail_send"})

	got := f.Resolve("triage_worker", all)
	if len(got) != 2 {
		t.Errorf("expected fail-open to full unblocked set, got %v", names(got))
	}
}

func TestResolve_PreservesOrder(t *testing.T) {
	all := descriptors("z", "a", "m")
	f := NewFilter(nil, nil)

	got := names(f.Resolve("general", all))
	want := []string{"z", "a", "m"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order not preserved: %v", got)
		}
	}
}
