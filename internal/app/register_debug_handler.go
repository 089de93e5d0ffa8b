// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/imu6050/internal/config"
	"github.com/relabs-tech/imu6050/internal/imu"
	"github.com/relabs-tech/imu6050/internal/sensors"
)

// registerDevice is what the debugger needs from sensors.IMUManager.
type registerDevice interface {
	ReadIMU() (imu.IMURaw, error)
	ReadRegister(addr byte) (byte, error)
	WriteRegister(addr, value byte) error
	ReadAllRegisters() (map[byte]byte, error)
	ExportRegisterConfig() (map[byte]byte, error)
	Reinitialize() error
	GetRegisterMap() []sensors.RegisterInfo
}

// RegisterDebugger serves the register debugging WebSocket and REST API.
type RegisterDebugger struct {
	dev     registerDevice
	allowed []config.RegisterRange
}

// NewRegisterDebugger returns a debugger for dev that only writes
// registers inside allowed.
func NewRegisterDebugger(dev registerDevice, allowed []config.RegisterRange) *RegisterDebugger {
	return &RegisterDebugger{dev: dev, allowed: allowed}
}

// RegisterDebugSession holds WebSocket connection state for register debugging
type RegisterDebugSession struct {
	Conn *websocket.Conn
	dbg  *RegisterDebugger
}

// RegisterCmd is any message the browser sends.
type RegisterCmd struct {
	Action  string `json:"action"` // "get_map", "read", "read_all", "write", "init", "export_config"
	Address string `json:"addr,omitempty"`
	Value   string `json:"value,omitempty"`
}

// Response types
type RegisterResponse struct {
	Type        string            `json:"type"`             // "register_data", "register_map", "status", "error"
	Device      string            `json:"device,omitempty"` // always "mpu6050"
	Address     string            `json:"addr,omitempty"`
	Value       string            `json:"value,omitempty"`
	Registers   map[string]string `json:"registers,omitempty"` // for bulk read
	Timestamp   string            `json:"timestamp,omitempty"`
	Message     string            `json:"message,omitempty"`
	Status      string            `json:"status,omitempty"`
	RegisterMap []RegisterInfo    `json:"register_map,omitempty"`
}

type RegisterInfo struct {
	Address     string             `json:"address"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Access      string             `json:"access"` // "R", "W", "RW"
	Default     string             `json:"default,omitempty"`
	Writable    bool               `json:"writable"`
	BitFields   []sensors.BitField `json:"bit_fields,omitempty"`
}

// RegisterConfigFile represents the JSON structure for exported register configuration
type RegisterConfigFile struct {
	Version   int               `json:"version"`
	Device    string            `json:"device"`
	Timestamp string            `json:"timestamp"`
	Registers map[string]string `json:"registers"` // hex address -> hex value
}

const debugDevice = "mpu6050"

// HandleRegisterDebugWS handles the WebSocket connection for register debugging
func (d *RegisterDebugger) HandleRegisterDebugWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("register_debug: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	session := &RegisterDebugSession{Conn: conn, dbg: d}

	// Send register map on connection
	if err := session.sendRegisterMap(); err != nil {
		log.Printf("register_debug: error sending register map: %v", err)
		return
	}

	// Message loop
	for {
		var cmd RegisterCmd
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("register_debug: websocket error: %v", err)
			}
			break
		}

		switch cmd.Action {
		case "":
			session.sendError("missing or invalid action field")
		case "get_map":
			session.sendRegisterMap()
		case "read":
			session.handleRead(cmd)
		case "read_all":
			session.handleReadAll()
		case "write":
			session.handleWrite(cmd)
		case "init":
			session.handleInit()
		case "export_config":
			session.handleExportConfig()
		default:
			session.sendError(fmt.Sprintf("unknown action: %s", cmd.Action))
		}
	}
}

func parseHexByte(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

func hexMap(registers map[byte]byte) map[string]string {
	out := make(map[string]string, len(registers))
	for addr, value := range registers {
		out[fmt.Sprintf("0x%02X", addr)] = fmt.Sprintf("0x%02X", value)
	}
	return out
}

func (s *RegisterDebugSession) handleRead(cmd RegisterCmd) {
	if cmd.Address == "" {
		s.sendError("missing addr field")
		return
	}
	addr, err := parseHexByte(cmd.Address)
	if err != nil {
		s.sendError(fmt.Sprintf("invalid address format: %s", cmd.Address))
		return
	}

	value, err := s.dbg.dev.ReadRegister(addr)
	if err != nil {
		s.sendError(fmt.Sprintf("read error: %v", err))
		return
	}

	s.Conn.WriteJSON(RegisterResponse{
		Type:      "register_data",
		Device:    debugDevice,
		Address:   fmt.Sprintf("0x%02X", addr),
		Value:     fmt.Sprintf("0x%02X", value),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (s *RegisterDebugSession) handleReadAll() {
	registers, err := s.dbg.dev.ReadAllRegisters()
	if err != nil {
		s.sendError(fmt.Sprintf("read all error: %v", err))
		return
	}

	s.Conn.WriteJSON(RegisterResponse{
		Type:      "register_data",
		Device:    debugDevice,
		Registers: hexMap(registers),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (s *RegisterDebugSession) handleWrite(cmd RegisterCmd) {
	if cmd.Address == "" || cmd.Value == "" {
		s.sendError("missing addr or value field")
		return
	}

	addr, err := parseHexByte(cmd.Address)
	if err != nil {
		s.sendError(fmt.Sprintf("invalid address format: %s", cmd.Address))
		return
	}
	value, err := parseHexByte(cmd.Value)
	if err != nil {
		s.sendError(fmt.Sprintf("invalid value format: %s", cmd.Value))
		return
	}

	if s.dbg.readOnly(addr) {
		s.sendError(fmt.Sprintf("register 0x%02X is read-only", addr))
		return
	}
	if !config.AnyContains(s.dbg.allowed, addr) {
		s.sendError(fmt.Sprintf("register 0x%02X not in allowed write ranges", addr))
		return
	}
	if err := s.dbg.dev.WriteRegister(addr, value); err != nil {
		s.sendError(fmt.Sprintf("write error: %v", err))
		return
	}
	log.Printf("register_debug: wrote 0x%02X = 0x%02X", addr, value)

	s.Conn.WriteJSON(RegisterResponse{
		Type:      "register_data",
		Device:    debugDevice,
		Address:   fmt.Sprintf("0x%02X", addr),
		Value:     fmt.Sprintf("0x%02X", value),
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   "write successful",
	})
}

func (s *RegisterDebugSession) handleInit() {
	if err := s.dbg.dev.Reinitialize(); err != nil {
		s.sendError(fmt.Sprintf("reinit error: %v", err))
		return
	}

	s.Conn.WriteJSON(RegisterResponse{
		Type:    "status",
		Device:  debugDevice,
		Status:  "initialized",
		Message: "IMU reinitialized successfully",
	})
}

func (s *RegisterDebugSession) handleExportConfig() {
	registers, err := s.dbg.dev.ExportRegisterConfig()
	if err != nil {
		s.sendError(fmt.Sprintf("export error: %v", err))
		return
	}

	now := time.Now()
	configJSON, err := json.Marshal(RegisterConfigFile{
		Version:   1,
		Device:    debugDevice,
		Timestamp: now.Format(time.RFC3339),
		Registers: hexMap(registers),
	})
	if err != nil {
		s.sendError(fmt.Sprintf("export error: %v", err))
		return
	}

	s.Conn.WriteJSON(map[string]interface{}{
		"type":     "export_config",
		"device":   debugDevice,
		"message":  "config exported",
		"config":   string(configJSON),
		"filename": fmt.Sprintf("%s_%s_registers.json", debugDevice, now.Format("20060102_150405")),
	})
}

// readOnly reports whether the register map marks addr as read-only.
func (d *RegisterDebugger) readOnly(addr byte) bool {
	for _, r := range d.dev.GetRegisterMap() {
		if r.Address == addr {
			return r.Access == "R"
		}
	}
	return false
}

func (s *RegisterDebugSession) sendRegisterMap() error {
	regMap := s.dbg.dev.GetRegisterMap()

	mappedRegs := make([]RegisterInfo, len(regMap))
	for i, r := range regMap {
		mappedRegs[i] = RegisterInfo{
			Address:     fmt.Sprintf("0x%02X", r.Address),
			Name:        r.Name,
			Description: r.Description,
			Access:      r.Access,
			Default:     r.Default,
			Writable:    r.Access != "R" && config.AnyContains(s.dbg.allowed, r.Address),
			BitFields:   r.BitFields,
		}
	}

	return s.Conn.WriteJSON(RegisterResponse{
		Type:        "register_map",
		Device:      debugDevice,
		RegisterMap: mappedRegs,
	})
}

func (s *RegisterDebugSession) sendError(message string) {
	s.Conn.WriteJSON(RegisterResponse{
		Type:    "error",
		Message: message,
	})
}

// HandleIMUData serves one live sample via REST API.
func (d *RegisterDebugger) HandleIMUData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	raw, err := d.dev.ReadIMU()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	json.NewEncoder(w).Encode(raw)
}

// Routes returns the debugger's HTTP handler.
func (d *RegisterDebugger) Routes(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", d.HandleRegisterDebugWS)
	mux.HandleFunc("/api/imu", d.HandleIMUData)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

// RunRegisterDebug brings up the local IMU and serves the debugger on
// REGISTER_DEBUG_PORT.
func RunRegisterDebug() error {
	cfg := config.Get()

	mgr := sensors.GetIMUManager()
	if err := mgr.Init(); err != nil {
		return fmt.Errorf("initialize IMU manager: %w", err)
	}
	defer mgr.Close()

	if len(cfg.RegisterDebugAllowedRanges) == 0 {
		log.Println("register_debug: REGISTER_DEBUG_ALLOWED_RANGES is empty, writes are disabled")
	}

	dbg := NewRegisterDebugger(mgr, cfg.RegisterDebugAllowedRanges)
	addr := fmt.Sprintf(":%d", cfg.RegisterDebugPort)
	log.Printf("register_debug: listening on %s", addr)
	return http.ListenAndServe(addr, dbg.Routes("web/register_debug"))
}
