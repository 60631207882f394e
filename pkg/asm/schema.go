package asm

import "github.com/vm8/toolkit/pkg/isa"

// operandKind classifies one operand slot of an instruction mnemonic so
// pass 2 knows how many source tokens to consume and how to encode them.
type operandKind int

const (
	kindReg     operandKind = iota // single register letter, 1 byte
	kindImm8                       // number or label, 1 byte
	kindImm16                      // number or label, 2 bytes lo,hi
	kindAddr16                     // number or label, 2 bytes lo,hi
	kindPort                       // number or label, 1 byte
	kindRegPair                    // two register letters (one token or two), 2 bytes hi,lo
)

// schema lists the operand shape of every opcode, in source order. Total
// encoded operand bytes always equals isa.Length(op)-1; this is checked by
// TestSchemaLengthsMatchCatalog.
var schema = map[isa.OpCode][]operandKind{
	isa.LDI:    {kindReg, kindImm8},
	isa.LDI16:  {kindRegPair, kindImm16},
	isa.MOV:    {kindReg, kindReg},
	isa.LDM:    {kindReg, kindAddr16},
	isa.STM:    {kindAddr16, kindReg},
	isa.LDR:    {kindReg, kindReg, kindReg},
	isa.STR:    {kindReg, kindReg, kindReg},
	isa.ADD:    {kindReg, kindReg},
	isa.ADC:    {kindReg, kindReg},
	isa.SUB:    {kindReg, kindReg},
	isa.SBC:    {kindReg, kindReg},
	isa.INC:    {kindReg},
	isa.DEC:    {kindReg},
	isa.CMP:    {kindReg, kindReg},
	isa.AND:    {kindReg, kindReg},
	isa.OR:     {kindReg, kindReg},
	isa.XOR:    {kindReg, kindReg},
	isa.NOT:    {kindReg},
	isa.SHL:    {kindReg},
	isa.SHR:    {kindReg},
	isa.JMP:    {kindAddr16},
	isa.JZ:     {kindAddr16},
	isa.JNZ:    {kindAddr16},
	isa.JC:     {kindAddr16},
	isa.JNC:    {kindAddr16},
	isa.PUSH:   {kindReg},
	isa.POP:    {kindReg},
	isa.PUSH16: {kindRegPair},
	isa.POP16:  {kindRegPair},
	isa.CALL:   {kindAddr16},
	isa.RET:    {},
	isa.IN:     {kindReg, kindPort},
	isa.OUT:    {kindPort, kindReg},
	isa.HALT:   {},
}
