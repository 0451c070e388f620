package foreign

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"

	"mika/internal/object"
)

func cryptoNamespace() *object.Instance {
	digest := func(name string, sum func([]byte) []byte) *object.Builtin {
		return native(name, 1, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			s, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			return str(hex.EncodeToString(sum([]byte(s)))), nil
		})
	}
	mac := func(name string, h func() hash.Hash) *object.Builtin {
		return native(name, 2, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			msg, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			secret, err := stringArg(name, args, 1)
			if err != nil {
				return nil, err
			}
			m := hmac.New(h, []byte(secret))
			m.Write([]byte(msg))
			return str(hex.EncodeToString(m.Sum(nil))), nil
		})
	}

	return namespace("Crypto", members(
		digest("md5", func(b []byte) []byte { s := md5.Sum(b); return s[:] }),
		digest("sha256", func(b []byte) []byte { s := sha256.Sum256(b); return s[:] }),
		digest("sha512", func(b []byte) []byte { s := sha512.Sum512(b); return s[:] }),
		mac("hmacSha256", sha256.New),
		native("base64Encode", 1, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			s, err := stringArg("base64Encode", args, 0)
			if err != nil {
				return nil, err
			}
			return str(base64.StdEncoding.EncodeToString([]byte(s))), nil
		}),
		native("base64Decode", 1, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			s, err := stringArg("base64Decode", args, 0)
			if err != nil {
				return nil, err
			}
			b, derr := base64.StdEncoding.DecodeString(s)
			if derr != nil {
				return nil, object.NewError("invalid base64 input: %v", derr)
			}
			return str(string(b)), nil
		}),
	))
}
