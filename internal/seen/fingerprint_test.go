package seen

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	first := Fingerprint("So11111111111111111111111111111111111111112")
	second := Fingerprint("So11111111111111111111111111111111111111112")
	if first != second {
		t.Fatalf("期望重复调用结果一致，实际 %s != %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("期望 64 位十六进制指纹，实际长度 %d", len(first))
	}
}

func TestFingerprintNormalizesCaseAndWhitespace(t *testing.T) {
	plain := Fingerprint("addr")
	folded := Fingerprint("  ADDR  ")
	if plain != folded {
		t.Fatalf("期望大小写与空白归一化后指纹相同，实际 %s != %s", plain, folded)
	}
}

func TestFingerprintEmptyInputStillDigests(t *testing.T) {
	if Fingerprint("") == "" {
		t.Fatal("期望空输入仍产生指纹")
	}
}
