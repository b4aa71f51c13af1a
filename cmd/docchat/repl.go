package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tailored-agentic-units/docchat/session"
)

const separator = "--------------------------------------------------"

type command int

const (
	cmdAsk command = iota
	cmdExit
	cmdReset
	cmdResetAll
)

// parseCommand classifies an input line. Matching is case-insensitive and
// ignores surrounding whitespace.
func parseCommand(line string) command {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit", "종료", "나가기":
		return cmdExit
	case "reset", "clear", "초기화", "리셋":
		return cmdReset
	case "reset all", "clear all", "모두 초기화", "전체 초기화":
		return cmdResetAll
	default:
		return cmdAsk
	}
}

type repl struct {
	chat      chat
	sessionID string
}

func newREPL(c chat, sessionID string) *repl {
	return &repl{chat: c, sessionID: sessionID}
}

// Run reads questions from in until an exit command, EOF or cancellation.
func (r *repl) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "대화를 시작합니다. 종료하려면 'exit' 또는 'quit'를 입력하세요.")
	fmt.Fprintln(out, separator)

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(out, "\n사용자에 의해 종료되었습니다.")
			return nil
		}

		fmt.Fprint(out, "질문을 입력하세요: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()

		switch parseCommand(line) {
		case cmdExit:
			fmt.Fprintln(out, "사용자에 의해 종료되었습니다.")
			return nil
		case cmdReset:
			r.reset(ctx, out, r.sessionID, "현재 대화 기록이 초기화되었습니다.")
		case cmdResetAll:
			r.reset(ctx, out, session.All, "모든 세션의 대화 기록이 초기화되었습니다.")
		default:
			if strings.TrimSpace(line) == "" {
				continue
			}
			answer, err := r.chat.Ask(ctx, line, r.sessionID)
			if err != nil {
				slog.Error("query failed", "error", err)
				fmt.Fprintf(out, "오류가 발생했습니다: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "\n답변:\n%s\n%s\n\n", answer, separator)
		}
	}
}

func (r *repl) reset(ctx context.Context, out io.Writer, sessionID, done string) {
	if err := r.chat.Reset(ctx, sessionID); err != nil {
		fmt.Fprintf(out, "오류가 발생했습니다: %v\n", err)
		return
	}
	fmt.Fprintln(out, done)
}
