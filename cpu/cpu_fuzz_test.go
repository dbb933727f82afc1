package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/calos/ram"
)

func FuzzDecode(f *testing.F) {
	for _, text := range []string{
		"mov 5 reg0",
		"mov *reg1 reg2",
		"mov 'hi' 997",
		"add *0x3e5, reg1",
		"sub -3 reg2",
		"jmp 12",
		"jmp *reg0",
		"loop: jnz reg0 loop",
		"jez reg2 'x'",
		"call getpid",
		"CALL print # trailing",
		"end",
		"mov 'a b' reg0",
		"mov *5 *6",
		"mov 'open reg0",
		"jgz 5 6",
		"",
	} {
		f.Add(text)
	}

	f.Fuzz(func(t *testing.T, text string) {
		assert := assert.New(t)

		ins, err := Decode(ram.Text(text))
		if err != nil {
			assert.True(errors.Is(err, ErrInvalidInstruction) || errors.Is(err, ErrIllegalOperand),
				"%q: %v", text, err)
			return
		}

		again, err := Decode(ram.Text(ins.String()))
		if !assert.NoError(err, "%q -> %q", text, ins.String()) {
			return
		}
		assert.Equal(ins, again, "%q -> %q", text, ins.String())
	})
}
