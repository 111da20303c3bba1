package payme

import "fmt"

// Code is one of Payme's fixed integer JSON-RPC error codes.
type Code int

const (
	CodeParse             Code = -32700
	CodeMethodNotFound    Code = -32601
	CodeAuth              Code = -32504
	CodeAmount            Code = -31001
	CodeTransactionNotFound Code = -31003
	CodeOrderNotFound     Code = -31050
	CodeOrderNotAvailable Code = -31051
	CodeCannotCancel      Code = -31007
	CodeAlreadyDone       Code = -31008
)

// RPCError is the closed sum type the redesign note calls for: a single
// value that carries everything the HTTP-layer translator needs to build a
// provider-facing JSON-RPC error envelope, replacing exception-based control
// flow.
type RPCError struct {
	Code    Code
	Message string // Russian message, per the provider's {ru: string} convention
	Data    string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("payme: code=%d %s", e.Code, e.Message)
}

func newErr(code Code, ru string, data string) *RPCError {
	return &RPCError{Code: code, Message: ru, Data: data}
}

var (
	ErrParse             = newErr(CodeParse, "Ошибка разбора запроса", "")
	ErrMethodNotFound    = newErr(CodeMethodNotFound, "Метод не найден", "")
	ErrAuth              = newErr(CodeAuth, "Неверная авторизация", "")
	ErrAmount            = newErr(CodeAmount, "Неверная сумма", "amount")
	ErrTransactionNotFound = newErr(CodeTransactionNotFound, "Транзакция не найдена", "id")
	ErrOrderNotFound     = newErr(CodeOrderNotFound, "Заказ не найден", "order_id")
	ErrOrderNotAvailable = newErr(CodeOrderNotAvailable, "Заказ недоступен, повторите позже", "order_id")
	ErrCannotCancel      = newErr(CodeCannotCancel, "Невозможно отменить выполненную транзакцию", "")
	ErrAlreadyDone       = newErr(CodeAlreadyDone, "Транзакция уже завершена", "")
)
