package codegen

// The constants below are the fixed runtime preamble every compiled program
// links against: the BSS/data layout, the software return-pointer stack
// (needed because a function body freely pushes and pops value-stack ints
// on the same native stack a `call`/`ret` pair would use for its return
// address), the variable put/fetch routines and the process-exit routine.
// Verbatim in shape and register use from the template this backend is
// grounded on; only the Go string literal syntax differs.

const header = `
bits 64
default rel
segment .bss
    _io@print_str_chars_written: resb 4
    _io@print_char_buffer:  resb 1
    _mem@mem: resb 256
    _mem@internal: resb 256
	_mem@ret_ptr: resb 6144
    _mem@variables: resb 24576

segment .text
    global _start
    extern GetStdHandle
    extern WriteConsoleA
    extern ExitProcess
    extern HeapAlloc
    extern HeapCreate
    extern HeapReAlloc
    extern HeapDestroy
    extern GetProcessHeap
    extern HeapFree
    extern printf`

// retPtrRoutines saves and restores a function's real return address in
// _mem@ret_ptr (indexed by _mem@ret_ptr_idx) around its body, so the body's
// own push/pop traffic on rsp never disturbs the address `ret` would
// otherwise need.
const retPtrRoutines = `
_std@ret_ptr_addr:
	xor rax, rax
	mov rdx, 8
	mov ax, word [_mem@ret_ptr_idx]
	mul rdx
	lea rbx, [_mem@ret_ptr]
	add rax, rbx
	ret

_std@store_ret_ptr:
	pop r15
	pop r14
	call _std@ret_ptr_addr
	mov qword [rax], r14
	inc word [_mem@ret_ptr_idx]
	push r15
	ret

_std@load_ret_ptr:
    pop r15
	dec word [_mem@ret_ptr_idx]
	call _std@ret_ptr_addr
	mov r14, [rax]
	push r14
	push r15
	ret`

// printInt is a placeholder: integer-to-string formatting for printing is
// not part of this backend's sys surface (programs that need it call out
// through sys:: to a host function instead).
const printInt = " "

// variableRoutines implement `put`/`fetch`: a dense slot index times 8
// bytes into _mem@variables.
const variableRoutines = `
_std@put_variable:
    pop r15
    pop rax ;variable idx
    pop rbx ;variable
	mov rdx, 8
	mul rdx
	lea rcx, [_mem@variables]
	add rax, rcx
    mov qword [rax], rbx
    push r15
	ret

_std@fetch_variable:
    pop r15
    pop rax ;variable idx
	mov rdx, 8
	mul rdx
	lea rcx, [_mem@variables]
	add rax, rcx
    mov rbx, qword [rax]
    push rbx
    push r15
	ret`

const exitRoutine = `
_std@exit:
    lea rax, [_mem@internal]
    add rax, 32
    mov rcx, qword [rax]
    call HeapDestroy
    xor rcx, rcx
    call ExitProcess
    ret`
