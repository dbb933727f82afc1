package ram

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWord(t *testing.T) {
	assert := assert.New(t)

	var zero Word
	value, ok := zero.Int()
	assert.True(ok)
	assert.Equal(0, value)
	assert.False(zero.IsText())

	w := Int(-42)
	assert.Equal("-42", w.String())
	assert.Equal("-42", w.Quote())
	_, ok = w.Text()
	assert.False(ok)

	w = Text("mov 5 reg0")
	assert.True(w.IsText())
	_, ok = w.Int()
	assert.False(ok)
	text, ok := w.Text()
	assert.True(ok)
	assert.Equal("mov 5 reg0", text)
	assert.Equal("mov 5 reg0", w.String())

	assert.Equal("'ab'", Text("ab").Quote())
	assert.Equal("''", Text("").Quote())
}

func TestMemory(t *testing.T) {
	assert := assert.New(t)

	mem := New(RAM_SIZE)
	assert.Equal(RAM_SIZE, mem.Size())

	for _, addr := range []int{0, 5, RAM_SIZE - 1} {
		err := mem.Write(addr, Int(addr+1))
		assert.NoError(err)
		word, err := mem.Read(addr)
		assert.NoError(err)
		assert.Equal(Int(addr+1), word)
	}

	for _, addr := range []int{-1, RAM_SIZE, RAM_SIZE + 100} {
		_, err := mem.Read(addr)
		assert.True(errors.Is(err, ErrIllegalAddress), "read %d", addr)
		err = mem.Write(addr, Int(1))
		assert.True(errors.Is(err, ErrIllegalAddress), "write %d", addr)

		var addrErr *ErrAddress
		assert.True(errors.As(err, &addrErr))
		assert.Equal(addr, addrErr.Addr)
	}

	mem.Reset()
	word, _ := mem.Read(5)
	assert.Equal(Int(0), word)
}

func TestMemory_Words(t *testing.T) {
	assert := assert.New(t)

	mem := New(8)
	for n := range 8 {
		mem.Write(n, Int(n*10))
	}

	var addrs []int
	var values []Word
	for addr, word := range mem.Words(-3, 20) {
		addrs = append(addrs, addr)
		values = append(values, word)
	}
	assert.Equal([]int{0, 1, 2, 3, 4, 5, 6, 7}, addrs)
	assert.Equal(Int(70), values[7])

	count := 0
	for range mem.Words(2, 4) {
		count++
	}
	assert.Equal(3, count)
}

func TestMemory_Concurrent(t *testing.T) {
	mem := New(RAM_SIZE)

	var wg sync.WaitGroup
	for n := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 1000 {
				if n%2 == 0 {
					mem.Write(KBD_DATA, Text("abcd"))
				} else {
					mem.Write(KBD_DATA, Int(i))
				}
				mem.Read(KBD_DATA)
			}
		}()
	}
	wg.Wait()
}

func TestDefines(t *testing.T) {
	assert := assert.New(t)

	defs := map[string]string{}
	for key, value := range Defines() {
		defs[key] = value
	}

	assert.Equal("997", defs["KBD_STATUS"])
	assert.Equal("1022", defs["SCREEN_DATA"])
	assert.Equal("0x4", defs["CONTROL_READ"])
}
