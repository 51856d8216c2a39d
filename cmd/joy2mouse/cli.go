package main

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/naegi/joy2mouse/internal/pkg/logger"
)

type TimeNanosecond time.Time

func (j *TimeNanosecond) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	*j = TimeNanosecond(time.Unix(0, v))
	return nil
}

type Entry struct {
	Ts     TimeNanosecond `json:"ts"`
	Caller string         `json:"caller"`
	Msg    string         `json:"msg"`
	Level  int            `json:"level"`

	DeviceName string `json:"device_name"`
	DevicePath string `json:"device_path"`
}

func unpack(data []byte) (Entry, error) {
	var v Entry
	err := json.Unmarshal(data, &v)
	return v, err
}

func gray(v uint8) aurora.Color {
	if v > 23 {
		v = 23
	}
	return aurora.Color(232+v) << 16
}

func color(r, g, b uint8) aurora.Color {
	return aurora.Color(16+36*r+6*g+b) << 16
}

// colorForString returns a stable pseudo-random color for a string.
func colorForString(au aurora.Aurora, s string) aurora.Value {
	h := fnv.New32a()
	h.Write([]byte(s))
	sum := h.Sum32()

	r, g, b := uint8(sum)&0b111, uint8(sum>>8)&0b111, uint8(sum>>16)&0b111
	if r > 5 {
		r = 5
	}
	if g > 5 {
		g = 5
	}
	if b > 5 {
		b = 5
	}
	if r+g+b < 3 {
		r, g, b = r+1, g+1, b+1
	}

	return au.Index(16+36*r+6*g+b, s)
}

func prepareString(msg Entry, au aurora.Aurora, logLevel int) string {
	if msg.Level > logLevel {
		return ""
	}

	var msgColor aurora.Color
	switch msg.Level {
	case logger.ErrorLvl:
		msgColor = color(5, 1, 1)
	case logger.WarningLvl:
		msgColor = color(5, 5, 1)
	case logger.InfoLvl:
		msgColor = gray(18)
	case logger.AnalogLvl:
		msgColor = gray(12)
	case logger.DebugLvl:
		msgColor = gray(9)
	}

	t := time.Time(msg.Ts)
	timestamp := fmt.Sprintf("[%s]", au.Reset(t.Format("15:04:05.000")).Colorize(color(1, 1, 5)).String())

	fields := ""
	if msg.DeviceName != "" {
		fields += fmt.Sprintf(" [dev=%s]", colorForString(au, msg.DeviceName).String())
	}
	if msg.DevicePath != "" {
		fields += fmt.Sprintf(" [%s]", colorForString(au, msg.DevicePath).String())
	}
	if logLevel >= logger.DebugLvl && msg.Caller != "" {
		x := strings.Split(msg.Caller, ":")
		fields += fmt.Sprintf(" (%s:%s)", colorForString(au, x[0]).String(), x[1])
	}

	m := au.Reset(msg.Msg).Colorize(msgColor).String()
	return strings.TrimRight(fmt.Sprintf("%s %s%s", timestamp, m, fields), " ")
}

// consumeLogs renders logger output to the terminal until the Messages
// channel is closed.
func consumeLogs(silent, noColor bool, logLevel int) {
	if silent {
		for range logger.Messages {
		}
		return
	}

	au := aurora.NewAurora(!noColor)
	for data := range logger.Messages {
		msg, err := unpack(data)
		if err != nil {
			fmt.Printf("%s\n", string(data))
			continue
		}
		m := prepareString(msg, au, logLevel)
		if m != "" {
			fmt.Printf("%s\n", m)
		}
	}
}
