package waweb

// The scripts below run inside the WhatsApp Web page and program against its
// internal Store modules. Each one projects live model objects down to the
// plain JSON shapes decoded by internal/core/domain. Fields the page cannot
// supply degrade to empty values instead of raising, so a missing contact or
// a half-synced chat never aborts a whole page of results.

// sessionReadyJS reports whether the app has finished loading its Store,
// which only happens after authentication.
const sessionReadyJS = `() => Boolean(window.Store && window.Store.Chat && window.Store.Conn)`

// listGroupsJS projects every group chat with its cached metadata count. The
// count comes from the chat list snapshot and may lag behind the live roster.
const listGroupsJS = `() => {
	return window.Store.Chat.getModelsArray()
		.filter((c) => c.isGroup)
		.map((c) => {
			const meta = c.groupMetadata;

			return {
				id: c.id && typeof c.id._serialized === 'string' ? c.id._serialized : '',
				name: c.formattedTitle || c.name || '',
				description: meta && meta.desc ? String(meta.desc) : '',
				metaCount: meta && meta.participants ? meta.participants.getModelsArray().length : 0,
			};
		});
}`

// getChatJS resolves a single chat. A null result means the session cannot
// address the chat yet.
const getChatJS = `(chatId) => {
	if (!window.Store || !window.Store.Chat) {
		return null;
	}

	const wid = window.Store.WidFactory.createWid(chatId);
	const chat = window.Store.Chat.get(wid);
	if (!chat) {
		return null;
	}

	return {
		id: chat.id && typeof chat.id._serialized === 'string' ? chat.id._serialized : '',
		name: chat.formattedTitle || chat.name || '',
		msgCount: chat.msgs ? chat.msgs.getModelsArray().length : 0,
	};
}`

// listMembersJS fetches the live participant roster of a group, joined with
// the contact book for naming fields.
const listMembersJS = `async (groupId) => {
	const wid = window.Store.WidFactory.createWid(groupId);
	const meta = await window.Store.GroupMetadata.find(wid);
	if (!meta || !meta.participants) {
		throw new Error('group metadata unavailable for ' + groupId);
	}

	return meta.participants.getModelsArray().map((p) => {
		const contact = window.Store.Contact.get(p.id);

		return {
			id: p.id && typeof p.id._serialized === 'string' ? p.id._serialized : '',
			name: (contact && contact.name) || '',
			shortName: (contact && contact.shortName) || '',
			pushname: (contact && contact.pushname) || '',
			formattedName: (contact && contact.formattedName) || '',
			isAdmin: Boolean(p.isAdmin || p.isSuperAdmin),
		};
	});
}`

// loadEarlierJS asks the page to extend the chat history backwards by one
// page and projects the returned batch. The page keeps the scroll cursor, so
// consecutive calls walk further into the past; an empty array means the
// history is exhausted.
const loadEarlierJS = `async (chatId) => {
	const wid = window.Store.WidFactory.createWid(chatId);
	const chat = window.Store.Chat.get(wid);
	if (!chat) {
		throw new Error('chat unavailable for ' + chatId);
	}

	const widString = (w) => (w && typeof w._serialized === 'string' ? w._serialized : '');

	const contactFields = (w) => {
		const contact = w ? window.Store.Contact.get(w) : null;
		if (!contact) {
			return null;
		}

		return {
			id: widString(contact.id),
			formattedName: contact.formattedName || '',
			pushname: contact.pushname || '',
			name: contact.name || '',
			shortName: contact.shortName || '',
		};
	};

	const project = (m) => {
		let quoted = null;
		const qm = typeof m.quotedMsgObj === 'function' ? m.quotedMsgObj() : null;
		if (qm) {
			quoted = {
				id: widString(qm.id),
				body: qm.body || '',
				hasMedia: Boolean(qm.mediaKey && qm.directPath),
			};
		}

		let reactions = null;
		if (m.reactions && typeof m.reactions.getModelsArray === 'function') {
			reactions = m.reactions.getModelsArray().map((r) => ({
				emoji: r.reactionText || r.aggregateEmoji || '',
				senders: r.senders && typeof r.senders.getModelsArray === 'function'
					? r.senders.getModelsArray().map((s) => widString(s.senderUserJid))
					: [],
			}));
		}

		return {
			id: widString(m.id),
			t: m.t || 0,
			body: m.body || '',
			content: typeof m.content === 'string' ? m.content : '',
			hasMedia: Boolean(m.mediaKey && m.directPath),
			author: widString(m.author),
			sender: contactFields(m.author || m.from),
			quoted: quoted,
			quotedParticipant: widString(m.quotedParticipant),
			reactions: reactions,
		};
	};

	const loaded = await window.Store.ConversationMsgs.loadEarlierMsgs(chat);
	if (!loaded) {
		return [];
	}

	return loaded.map(project);
}`
