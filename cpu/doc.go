// Package cpu implements the execution engine and assembler for the CalOS
// machine.
//
// The CPU has three general registers (reg0-reg2) and a program counter
// (pc). Each memory word holds one instruction as text; the program counter
// advances one word per instruction. Instructions are decoded from text at
// fetch time: mnemonic and operands are parsed before anything executes.
//
// The assembler resolves labels, equates and $(...) expressions into the
// text words the CPU executes.
package cpu
