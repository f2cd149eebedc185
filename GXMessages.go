package gxpacket

// --------------------------------------------------------------------------
//
//	Gurux Ltd
//
// Filename:        $HeadURL$
//
// Version:         $Revision$,
//
//	$Date$
//	$Author$
//
// # Copyright (c) Gurux Ltd
//
// ---------------------------------------------------------------------------
//
//	DESCRIPTION
//
// This file is a part of Gurux Device Framework.
//
// Gurux Device Framework is Open Source software; you can redistribute it
// and/or modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2 of the License.
// Gurux Device Framework is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU General Public License for more details.
//
// More information of Gurux products: https://www.gurux.org
//
// This code is licensed under the GNU General Public License v2.
// Full text may be retrieved at http://www.gnu.org/licenses/gpl-2.0.txt
// ---------------------------------------------------------------------------

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//nolint:errcheck
func init() {
	// --- English (default) ---
	message.SetString(language.AmericanEnglish, "msg.closing_connection", "Closing connection to %s")
	message.SetString(language.AmericanEnglish, "msg.connection_closed", "Connection closed to %s")
	message.SetString(language.AmericanEnglish, "msg.connecting_to", "Connecting to %s: %d bps")
	message.SetString(language.AmericanEnglish, "msg.connected_to", "Connected to %s: %s")
	message.SetString(language.AmericanEnglish, "msg.connect_failed", "connect to %s: failed: %v")
	message.SetString(language.AmericanEnglish, "msg.close_failed", "Closing %s failed: %v")
	message.SetString(language.AmericanEnglish, "msg.read_failed", "Read failed: %v")
	message.SetString(language.AmericanEnglish, "msg.send_failed", "Send failed: %v")
	message.SetString(language.AmericanEnglish, "msg.count_or_eop", "Either Count or EOP must be set")
	message.SetString(language.AmericanEnglish, "msg.no_serial_port_selected", "No serial port selected. Please select a serial port.")
	message.SetString(language.AmericanEnglish, "msg.permission_denied", "You do not have read/write permission to the serial port.")
	message.SetString(language.AmericanEnglish, "msg.port_unavailable", "The serial port can not be opened for an unknown reason.")
	message.SetString(language.AmericanEnglish, "msg.not_configured", "Please configure your serial port first.")

	// --- Chinese (zh) ---
	message.SetString(language.SimplifiedChinese, "msg.closing_connection", "正在关闭 %s")
	message.SetString(language.SimplifiedChinese, "msg.connection_closed", "%s 已关闭")
	message.SetString(language.SimplifiedChinese, "msg.connecting_to", "正在打开 %s: %d bps")
	message.SetString(language.SimplifiedChinese, "msg.connected_to", "已打开 %s: %s")
	message.SetString(language.SimplifiedChinese, "msg.connect_failed", "打开 %s 失败: %v")
	message.SetString(language.SimplifiedChinese, "msg.close_failed", "关闭 %s 失败: %v")
	message.SetString(language.SimplifiedChinese, "msg.read_failed", "读取失败: %v")
	message.SetString(language.SimplifiedChinese, "msg.send_failed", "发送失败: %v")
	message.SetString(language.SimplifiedChinese, "msg.count_or_eop", "必须设置 Count 或 EOP")
	message.SetString(language.SimplifiedChinese, "msg.no_serial_port_selected", "未选择串口，请选择串口。")
	message.SetString(language.SimplifiedChinese, "msg.permission_denied", "您对串行端口没有读/写权限。")
	message.SetString(language.SimplifiedChinese, "msg.port_unavailable", "由于未知原因，无法打开串行端口。")
	message.SetString(language.SimplifiedChinese, "msg.not_configured", "请先配置你的串口。")

	// --- German (de) ---
	message.SetString(language.German, "msg.closing_connection", "Verbindung zu %s wird geschlossen")
	message.SetString(language.German, "msg.connection_closed", "Verbindung zu %s wurde geschlossen")
	message.SetString(language.German, "msg.connecting_to", "Verbinde mit %s: %d bps")
	message.SetString(language.German, "msg.connected_to", "Verbunden mit %s: %s")
	message.SetString(language.German, "msg.connect_failed", "Verbindung zu %s fehlgeschlagen: %v")
	message.SetString(language.German, "msg.close_failed", "Schließen von %s fehlgeschlagen: %v")
	message.SetString(language.German, "msg.read_failed", "Lesen fehlgeschlagen: %v")
	message.SetString(language.German, "msg.send_failed", "Senden fehlgeschlagen: %v")
	message.SetString(language.German, "msg.count_or_eop", "Entweder Count oder EOP muss gesetzt sein")
	message.SetString(language.German, "msg.no_serial_port_selected", "Kein serieller Port ausgewählt. Bitte wählen Sie einen seriellen Port aus.")
	message.SetString(language.German, "msg.permission_denied", "Keine Lese-/Schreibberechtigung für den seriellen Port.")
	message.SetString(language.German, "msg.port_unavailable", "Der serielle Port kann aus unbekanntem Grund nicht geöffnet werden.")
	message.SetString(language.German, "msg.not_configured", "Bitte konfigurieren Sie zuerst den seriellen Port.")

	// --- Finnish (fi) ---
	message.SetString(language.Finnish, "msg.closing_connection", "Suljetaan yhteys kohteeseen %s")
	message.SetString(language.Finnish, "msg.connection_closed", "Yhteys suljettu kohteeseen %s")
	message.SetString(language.Finnish, "msg.connecting_to", "Yhdistetään kohteeseen %s: %d bps")
	message.SetString(language.Finnish, "msg.connected_to", "Yhdistetty kohteeseen %s: %s")
	message.SetString(language.Finnish, "msg.connect_failed", "Yhteyden muodostus kohteeseen %s epäonnistui: %v")
	message.SetString(language.Finnish, "msg.close_failed", "Kohteen %s sulkeminen epäonnistui: %v")
	message.SetString(language.Finnish, "msg.read_failed", "Luku epäonnistui: %v")
	message.SetString(language.Finnish, "msg.send_failed", "Lähetys epäonnistui: %v")
	message.SetString(language.Finnish, "msg.count_or_eop", "Joko Count tai EOP on asetettava")
	message.SetString(language.Finnish, "msg.no_serial_port_selected", "Sarjaporttia ei ole valittu. Valitse sarjaportti.")
	message.SetString(language.Finnish, "msg.permission_denied", "Sarjaporttiin ei ole luku- tai kirjoitusoikeutta.")
	message.SetString(language.Finnish, "msg.port_unavailable", "Sarjaporttia ei voida avata tuntemattomasta syystä.")
	message.SetString(language.Finnish, "msg.not_configured", "Määritä sarjaportti ensin.")

	// --- Swedish (sv) ---
	message.SetString(language.Swedish, "msg.closing_connection", "Stänger anslutning till %s")
	message.SetString(language.Swedish, "msg.connection_closed", "Anslutning stängd till %s")
	message.SetString(language.Swedish, "msg.connecting_to", "Ansluter till %s: %d bps")
	message.SetString(language.Swedish, "msg.connected_to", "Ansluten till %s: %s")
	message.SetString(language.Swedish, "msg.connect_failed", "Anslutning till %s misslyckades: %v")
	message.SetString(language.Swedish, "msg.close_failed", "Stängning av %s misslyckades: %v")
	message.SetString(language.Swedish, "msg.read_failed", "Läsning misslyckades: %v")
	message.SetString(language.Swedish, "msg.send_failed", "Sändning misslyckades: %v")
	message.SetString(language.Swedish, "msg.count_or_eop", "Antingen Count eller EOP måste anges")
	message.SetString(language.Swedish, "msg.no_serial_port_selected", "Ingen seriell port vald. Välj en seriell port.")
	message.SetString(language.Swedish, "msg.permission_denied", "Du har inte läs-/skrivbehörighet till den seriella porten.")
	message.SetString(language.Swedish, "msg.port_unavailable", "Den seriella porten kan inte öppnas av okänd anledning.")
	message.SetString(language.Swedish, "msg.not_configured", "Konfigurera den seriella porten först.")
}

// errorMessageKey returns the message key shown to the user for err.
func errorMessageKey(err error) string {
	switch KindOf(err) {
	case PermissionDenied:
		return "msg.permission_denied"
	case NotConfigured:
		return "msg.not_configured"
	case ReadFailed:
		return "msg.read_failed"
	case WriteFailed:
		return "msg.send_failed"
	default:
		return "msg.port_unavailable"
	}
}
