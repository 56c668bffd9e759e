package model

import "testing"

func TestHalqaResponseCountsActiveMembersOnly(t *testing.T) {
	h := &Halqa{ID: 1, Name: "حلقة النور"}
	h.Members = []*User{
		{Status: StatusActive, Gender: "male"},
		{Status: StatusActive, Gender: "ذكر"},
		{Status: StatusActive, Gender: "female"},
		{Status: StatusPending, Gender: "male"},
		{Status: StatusWithdrawn, Gender: "female"},
	}
	resp := h.Response()
	if resp["member_count"] != 3 {
		t.Fatalf("member_count = %v, want 3", resp["member_count"])
	}
	if resp["male_count"] != 2 {
		t.Fatalf("male_count = %v, want 2", resp["male_count"])
	}
	if resp["female_count"] != 1 {
		t.Fatalf("female_count = %v, want 1", resp["female_count"])
	}
}

func TestHalqaResponseSupervisorName(t *testing.T) {
	h := &Halqa{ID: 2, Name: "حلقة الفجر"}
	if resp := h.Response(); resp["supervisor_name"] != nil {
		t.Fatalf("supervisor_name = %v, want nil", resp["supervisor_name"])
	}
	h.Supervisor = &User{FullName: "سارة أحمد"}
	if resp := h.Response(); resp["supervisor_name"] != "سارة أحمد" {
		t.Fatalf("supervisor_name = %v, want سارة أحمد", resp["supervisor_name"])
	}
}

func TestValidRoleAndStatus(t *testing.T) {
	if !ValidRole(RoleSupervisor) || ValidRole("owner") {
		t.Fatalf("ValidRole misclassified")
	}
	if !ValidStatus(StatusRejected) || ValidStatus("deleted") {
		t.Fatalf("ValidStatus misclassified")
	}
}
