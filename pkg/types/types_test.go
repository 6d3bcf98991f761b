package types

import "testing"

func TestAssignabilityTable(t *testing.T) {
	tests := []struct {
		name   string
		target *Type
		source *Type
		want   Compatibility
	}{
		{"byte<-byte", TByte, TByte, Identical},
		{"word<-byte", TWord, TByte, Assignable},
		{"byte<-word", TByte, TWord, NarrowingAllowed},
		{"bool<-byte", TBool, TByte, Incompatible},
		{"byte<-bool", TByte, TBool, Incompatible},
		{"array<-array same", NewArray(TByte, 4), NewArray(TByte, 4), Identical},
		{"array<-array mismatched len", NewArray(TByte, 4), NewArray(TByte, 5), Incompatible},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Assignability(tc.target, tc.source); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestFunctionAssignabilityRequiresEqualSignature(t *testing.T) {
	f1 := NewFunction([]*Type{TByte}, TVoid)
	f2 := NewFunction([]*Type{TByte}, TVoid)
	f3 := NewFunction([]*Type{TWord}, TVoid)

	if Assignability(f1, f2) != Assignable {
		t.Fatal("expected equal signatures to be assignable")
	}
	if Assignability(f1, f3) != Incompatible {
		t.Fatal("expected mismatched param types to be incompatible")
	}
}

func TestAliasResolvesToUnderlying(t *testing.T) {
	alias := NewAlias("ScreenRow", NewArray(TByte, 40))
	if !Equal(alias, NewArray(TByte, 40)) {
		t.Fatal("expected alias to compare equal to its underlying type")
	}
}

func TestSizeOf(t *testing.T) {
	if SizeOf(TByte) != 1 || SizeOf(TWord) != 2 || SizeOf(TVoid) != 0 {
		t.Fatal("unexpected primitive sizes")
	}
	if SizeOf(NewArray(TWord, 3)) != 6 {
		t.Fatal("unexpected array size")
	}
	if SizeOf(NewPointer(TByte)) != 2 {
		t.Fatal("expected pointer size 2")
	}
}
